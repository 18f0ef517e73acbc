// Package tui implements the interactive terminal client for the gallery.
//
// The application has two screens:
//
//   - Gallery: the paginated image list. The first page loads on start,
//     "m" loads the next page and "r" reloads from the beginning.
//   - Form: the detail screen for the selected image, with the contact form
//     and the path or URL of the image to upload.
//
// Each screen owns its controller (gallery.Controller or
// submission.Controller). Gateway calls run as tea.Cmd goroutines and report
// back as messages tagged with the screen's sequence number; a message whose
// sequence number no longer matches the open screen is dropped.
//
// Usage:
//
//	client := gateway.NewClient(baseURL)
//	if err := tui.Run(client, tui.Options{Endpoint: baseURL}); err != nil {
//	    return err
//	}
package tui
