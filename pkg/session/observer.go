package session

import (
	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/runner"
)

// Observers fans lifecycle events out to several observers in order.
// Nil entries are skipped.
type Observers []Observer

func (o Observers) RunStarted() {
	for _, obs := range o {
		if obs != nil {
			obs.RunStarted()
		}
	}
}

func (o Observers) LineObserved(entry diagnostic.Entry) {
	for _, obs := range o {
		if obs != nil {
			obs.LineObserved(entry)
		}
	}
}

func (o Observers) RunFinished(result runner.Result) {
	for _, obs := range o {
		if obs != nil {
			obs.RunFinished(result)
		}
	}
}
