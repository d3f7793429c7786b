package server

// storage keys written by the login form after a successful POST /api/auth
const (
	tokenStorageKey    = "k_system_user_token"
	usernameStorageKey = "k_system_user"
)

const loginTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Brand}} - User Login</title>
    <style>` + baseCSS + `</style>
</head>
<body>
    <main class="card">
        <div class="brand">
            <h1>{{.Brand}}</h1>
            <p class="subtitle">User Login</p>
        </div>
        <form id="login-form" method="POST" action="{{.AuthEndpoint}}">
            <label>Username
                <input id="username" name="username" type="text" autocomplete="username" required autofocus>
            </label>
            <label>Password
                <input id="password" name="password" type="password" autocomplete="current-password" required>
            </label>
            <div id="login-error" class="error hidden" role="alert"></div>
            <button id="login-submit" type="submit">Sign in</button>
        </form>
        <footer>{{.Brand}} co., Ltd &bull; {{.Year}}</footer>
    </main>
    <script>
    (function() {
        const authEndpoint = {{.AuthEndpoint}};
        const postLoginPath = {{.PostLoginPath}};
        const tokenKey = {{.TokenKey}};
        const userKey = {{.UserKey}};

        const form = document.getElementById('login-form');
        const errorBox = document.getElementById('login-error');
        const submit = document.getElementById('login-submit');

        function setError(msg) {
            errorBox.textContent = msg || '';
            errorBox.classList.toggle('hidden', !msg);
        }

        function setLoading(loading) {
            submit.disabled = loading;
            submit.textContent = loading ? 'Signing in…' : 'Sign in';
        }

        form.addEventListener('submit', async function(e) {
            e.preventDefault();
            setError(null);
            setLoading(true);
            try {
                const res = await fetch(authEndpoint, {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({
                        username: document.getElementById('username').value,
                        password: document.getElementById('password').value
                    })
                });

                if (!res.ok) {
                    let message = res.statusText;
                    try {
                        const data = await res.json();
                        if (data && data.error) message = data.error;
                    } catch (_) {}
                    throw new Error(message);
                }

                const data = await res.json();
                if (data && data.token) {
                    try {
                        localStorage.setItem(tokenKey, data.token);
                        localStorage.setItem(userKey, data.username);
                    } catch (err) {
                        console.error('failed to save token', err);
                    }
                    window.location.replace(postLoginPath);
                    return;
                }

                throw new Error('Invalid response from server');
            } catch (err) {
                setError((err && err.message) || 'Login failed');
            } finally {
                setLoading(false);
            }
        });
    })();
    </script>
</body>
</html>`

const sitesTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Brand}} - Sites</title>
    <style>` + baseCSS + `</style>
</head>
<body>
    <main class="card">
        <div class="brand">
            <h1>{{.Brand}}</h1>
            <p class="subtitle">Sites</p>
        </div>
        <p>You are signed in. <a href="{{.LoginPath}}">Back to login</a></p>
        <footer>{{.Brand}} co., Ltd &bull; {{.Year}}</footer>
    </main>
</body>
</html>`
