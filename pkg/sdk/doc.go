// Package annotator embeds the PDF highlight-annotation engine in a Go
// program without the HTTP service.
//
// A Client owns one viewer session: one open document, its rendered pages
// and the annotations drawn over them. Every call is serialized through the
// session's writer goroutine.
//
//	client, _ := annotator.New(annotator.WithScale(1.5))
//	defer client.Close()
//
//	_, _ = client.Open(ctx, "paper.pdf", pdfBytes)
//	_ = client.WaitRendered(ctx)
//	_ = client.SetHighlightMode(ctx, true)
//
//	pending, _ := client.Capture(ctx, annotator.Selection{...})
//	id, _ := client.Confirm(ctx, "Definition", "")
//
//	name, data, _ := client.Export(ctx)
//	_ = os.WriteFile(name, data, 0o644)
package annotator
