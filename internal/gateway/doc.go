// Package gateway is the HTTP boundary between the gallery and its remote endpoint.
//
// The remote side exposes two multipart endpoints:
//   - getdata.php: one page of images for a given offset
//   - savedata.php: a contact form submission with an attached image
//
// # Usage Example
//
//	client := gateway.NewClient("http://localhost:3001/api")
//
//	page, err := client.FetchImages(ctx, 0)
//	if err != nil {
//	    log.Fatal(gateway.UserMessage(err))
//	}
//
//	result, err := client.SubmitUserData(ctx, &gateway.SubmissionPayload{
//	    Form:  form,
//	    Image: gateway.ImageRef("/home/me/Pictures/cat.png"),
//	})
//
// # Degraded Listings
//
// FetchImages never fails on a bad body. A response that is not a
// {"status":"success","images":[...]} envelope, or any non-200 status, becomes
// an empty page so that pagination terminates instead of halting. Network
// failures (timeouts, refused or reset connections) are still returned.
//
// # Image Attachment
//
// SubmitUserData picks an Attacher once per submission. Local paths and
// file:// URIs are streamed by reference with a filename and a MIME type
// inferred from the extension. http(s):// and data: URIs have no file access,
// so they are dereferenced into bytes before being attached.
//
// # Error Handling
//
// Every failure is a *GatewayError whose Type places it in the taxonomy
// (Timeout, InvalidInput for HTTP 400, Server for HTTP 500, Transport for
// everything else, MissingImage before any I/O). UserMessage and Hint turn
// an error into text suitable for the UI.
package gateway
