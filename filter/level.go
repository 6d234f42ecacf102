package filter

import (
	"github.com/nicwaller/mcastlog"
)

// MinLevel drops events whose [log][level] ranks below min.
// Events without a level count as INFO.
func MinLevel(min string) mcastlog.FilterPlugin {
	threshold := mcastlog.LevelRank(min)
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		if mcastlog.LevelRank(event.Field(mcastlog.PathLevel...).GetString()) < threshold {
			drop()
		}
		return nil
	}
}
