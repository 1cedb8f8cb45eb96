package http

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
)

// docsPage renders the OpenAPI document for the REST surface and points at
// the two channels it cannot describe.
const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Perimap API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>
    body{margin:0;background:#fafafa;font-family:sans-serif}
    header{padding:16px 24px;border-bottom:1px solid #ddd;background:#fff}
    header h1{margin:0 0 4px;font-size:20px}
    header p{margin:2px 0;color:#555;font-size:14px}
    code{background:#f0f0f0;padding:1px 4px;border-radius:3px}
  </style>
</head>
<body>
  <header>
    <h1>Perimap API</h1>
    <p>Place markers on a map, draw a polygon or circle perimeter, and read back which markers fall inside it.</p>
    <p>GraphQL: <code>POST /graphql</code> &middot; live session channel: <code>GET /ws/sessions/{id}</code> (WebSocket, interaction frames in, view frames out)</p>
  </header>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      docExpansion: 'list',
      tryItOutEnabled: true,
      presets: [SwaggerUIBundle.presets.apis],
    });
  </script>
</body>
</html>`

// OpenAPIPath is where the OpenAPI document is read from, relative to the working directory.
var OpenAPIPath = "api/openapi.yaml"

// SetupDocs registers the docs page at /docs and the OpenAPI document at
// /docs/openapi.yaml. The document is read once; when it is missing the
// page still loads and the document route answers 404.
func SetupDocs(app *fiber.App) {
	doc, err := os.ReadFile(OpenAPIPath)
	if err != nil {
		slog.Warn("openapi document unavailable", "path", OpenAPIPath, "error", err)
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsPage)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if doc == nil {
			return errNotFound(c, "openapi document not found")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc)
	})
}
