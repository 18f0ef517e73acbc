// Package gallery implements the pagination controller behind the image grid.
//
// A Controller owns the ordered image sequence for a single screen instance
// together with its cursor (offset), the hasMore flag and two loading flags.
// LoadInitial replaces the sequence with page zero; LoadMore appends the next
// page. Either call is dropped (StatusSkipped) while another fetch is in
// flight, so scroll-triggered calls never stack up.
//
// Usage:
//
//	client := gateway.NewClient(cfg.EffectiveBaseURL())
//	ctrl := gallery.NewController(client, func(msg string) { fmt.Println(msg) })
//
//	if _, err := ctrl.LoadInitial(ctx); err != nil {
//	    return err
//	}
//	for ctrl.Snapshot().HasMore {
//	    if _, err := ctrl.LoadMore(ctx); err != nil {
//	        return err
//	    }
//	}
//
// The sequence ends when the endpoint returns an empty page. Failed fetches
// leave the state as it was and report LoadFailedMessage through the
// Notifier, so the user can simply retry.
package gallery
