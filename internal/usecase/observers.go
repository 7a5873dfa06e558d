package usecase

import (
	"SleepSim/internal/domain/models"
	drepo "SleepSim/internal/domain/repository"
	"SleepSim/internal/services/twoprocess"
	applogger "SleepSim/pkg/logger"
)

// newMetricsObserver counts recorded transitions by kind.
func newMetricsObserver(m drepo.Metrics) twoprocess.Observer {
	return twoprocess.ObserverFunc(func(st twoprocess.Step) {
		if st.Transition != twoprocess.NoTransition && st.Recorded {
			m.RecordTransition(st.Transition.String())
		}
	})
}

// newLoggingObserver logs the wakefulness threshold once per run and every transition at
// debug level. It is nil when debug logging is off, which the engine skips.
func newLoggingObserver(l *applogger.Logger, scenario string, params twoprocess.Parameters) twoprocess.Observer {
	if !l.DebugEnabled() {
		return nil
	}
	return twoprocess.ObserverFunc(func(st twoprocess.Step) {
		if st.Index == 0 {
			l.Debug("wakefulness threshold",
				applogger.String("scenario", scenario),
				applogger.Float("wake_baseline_pressure", params.WakeBaselinePressure),
			)
		}
		if st.Transition == twoprocess.NoTransition {
			return
		}
		l.Debug("transition",
			applogger.String("scenario", scenario),
			applogger.String("kind", st.Transition.String()),
			applogger.Float("t", st.Time),
			applogger.Float("pressure", st.Pressure),
			applogger.Bool("recorded", st.Recorded),
		)
	})
}

// logPeriods lists the sleep periods of a finished run at debug level, numbered from 1.
func logPeriods(l *applogger.Logger, run *models.SimulationRun) {
	if !l.DebugEnabled() {
		return
	}
	for i, p := range run.Periods {
		l.Debug("sleep period",
			applogger.String("run_id", run.ID),
			applogger.Int("period", i+1),
			applogger.Float("start", p.Onset),
			applogger.Float("end", p.Offset),
		)
	}
}
