// Package alert decides who gets notified when a container chain's runway
// drops below the threshold and composes the message bodies for each
// audience.
package alert

import (
	"fmt"

	"github.com/papermoonio/credits-monitor/internal/domain"
)

// Decision is the routing outcome for one low-runway container chain:
// the owning team (if one is configured), the broadcast subscribers in
// their stored order, and the composed message bodies.
type Decision struct {
	Owner     *domain.TeamConfig
	Broadcast []domain.TeamConfig
	OwnerText string

	broadcastBase string
	hasOwner      bool
}

// Route returns nil when the runway is not low: no recipients are resolved
// and no messages are composed. When low, the owner is the single team
// whose para ID equals id, and the broadcast set is every team carrying the
// sentinel para ID 0. Identical inputs always produce byte-identical
// message strings.
func Route(id domain.ParaID, rw domain.RunwayResult, teams []domain.TeamConfig, networkName, dashboardURL string) *Decision {
	if !rw.IsLow {
		return nil
	}

	d := &Decision{}
	for i := range teams {
		switch teams[i].ParaID {
		case id:
			if d.Owner == nil {
				d.Owner = &teams[i]
			}
		case domain.BroadcastParaID:
			d.Broadcast = append(d.Broadcast, teams[i])
		}
	}
	d.hasOwner = d.Owner != nil

	link := fmt.Sprintf("%s/?network=%s#/para/%d", dashboardURL, networkName, id)

	if d.hasOwner {
		d.OwnerText = fmt.Sprintf(
			"⚠️ *Low credits* — your container chain *%s* (para ID %d) on %s has an estimated *%.2f days* of funding left.\nTop up the funding tank: %s",
			d.Owner.Name, id, networkName, rw.TotalRemainingDays, link,
		)
		d.broadcastBase = fmt.Sprintf(
			"⚠️ Container chain %d (*%s*) on %s is down to an estimated *%.2f days* of funding.",
			id, d.Owner.Name, networkName, rw.TotalRemainingDays,
		)
	} else {
		d.broadcastBase = fmt.Sprintf(
			"⚠️ Container chain %d on %s is down to an estimated *%.2f days* of funding.",
			id, networkName, rw.TotalRemainingDays,
		)
	}
	return d
}

// BroadcastText composes the broadcast body, qualified by the outcome of
// the owner dispatch. Composition depends on that outcome, which is why the
// router and dispatcher interleave per entity instead of routing everything
// up front.
func (d *Decision) BroadcastText(ownerDelivered bool) string {
	switch {
	case !d.hasOwner:
		return d.broadcastBase + "\nNo team is configured for this para ID."
	case !ownerDelivered:
		return d.broadcastBase + "\nThe owning team could not be notified."
	default:
		return d.broadcastBase
	}
}
