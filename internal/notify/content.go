package notify

import (
	"fmt"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// buildSubject renders the alert email subject for a handle.
func buildSubject(handle string) string {
	return fmt.Sprintf("Surge Alert: High Hidden Reply Activity for @%s", handle)
}

// buildBody renders the HTML alert body: the observed count against the
// snapshot's threshold and period. Values come from the alert's frozen
// snapshot so later config edits never change what a sent alert reports.
func buildBody(handle string, snap entities.ConfigSnapshot, surgeAmount int) string {
	return fmt.Sprintf(`<h2>Surge Alert: Hidden Reply Activity</h2>
<p>A surge in hidden replies has been detected for <strong>@%s</strong></p>
<ul>
<li>Current Count: %d</li>
<li>Threshold: %d replies per %g seconds</li>
</ul>`, handle, surgeAmount, snap.CountThreshold, float64(snap.PeriodMs)/1000)
}
