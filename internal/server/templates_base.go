package server

const baseCSS = `
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: linear-gradient(135deg, #374151 0%, #4b5563 25%, #6b7280 50%, #9ca3af 100%); color: #1f2937; min-height: 100vh; padding: 2rem; display: flex; align-items: center; justify-content: center; }
h1 { margin-bottom: 0.5rem; color: #1f2937; font-size: 2rem; font-weight: 800; letter-spacing: -0.5px; }
.subtitle { color: #6b7280; font-weight: 600; font-size: 0.95rem; }
.card { width: 100%; max-width: 520px; background: linear-gradient(145deg, #ffffff, #f9fafb); border: 1px solid rgba(209, 213, 219, 0.6); border-radius: 20px; padding: 3rem; box-shadow: 0 25px 80px rgba(0, 0, 0, 0.25), 0 10px 30px rgba(75, 85, 99, 0.3); }
.brand { text-align: center; margin-bottom: 2rem; }
form { display: grid; gap: 1.25rem; }
label { display: block; font-size: 0.875rem; font-weight: 600; color: #374151; }
input { width: 100%; margin-top: 0.5rem; padding: 0.875rem 1.125rem; border-radius: 10px; border: 2px solid #d1d5db; background: #fff; color: #111827; font-size: 0.95rem; outline: none; }
input:focus { border-color: #6b7280; }
button { margin-top: 0.75rem; padding: 1rem 1.5rem; border-radius: 10px; border: none; background: linear-gradient(145deg, #4b5563, #374151); color: #fff; font-weight: 700; font-size: 1rem; cursor: pointer; letter-spacing: 0.5px; }
button:active { transform: translateY(1px) scale(.997); }
button:disabled { opacity: 0.7; cursor: wait; }
.error { color: #dc2626; background: linear-gradient(145deg, #fee2e2, #fecaca); border: 1px solid #fca5a5; padding: 0.75rem 1rem; border-radius: 10px; font-size: 0.875rem; font-weight: 500; }
.hidden { display: none; }
footer { margin-top: 1.75rem; text-align: center; color: #6b7280; font-size: 0.8rem; }
@media screen and (max-width: 640px) {
    body { padding: 0.5rem; }
    .card { padding: 1.5rem; }
    h1 { font-size: 1.5rem; }
}
`
