package web

import (
	"github.com/teslashibe/go-coach/pkg/coach"
	"github.com/teslashibe/go-coach/pkg/drill"
	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/hub"
	"github.com/teslashibe/go-coach/pkg/protocol"
)

// PublishEvent implements feedback.Sink.
func (s *Server) PublishEvent(e feedback.Event) {
	msg, err := protocol.NewFeedbackMessage(e.Message, string(e.Severity), e.Time)
	s.broadcast(s.feedbackHub, msg, err)
}

// PublishMetrics implements feedback.Sink.
func (s *Server) PublishMetrics(drillID string, metrics []feedback.Metric) {
	data := make([]protocol.MetricData, len(metrics))
	for i, m := range metrics {
		data[i] = protocol.MetricData{
			Name:   m.Name,
			Label:  m.Label,
			Value:  m.Value,
			Raw:    m.Raw,
			Known:  m.Known,
			Status: string(m.Status),
		}
	}
	msg, err := protocol.NewMetricsMessage(drillID, data)
	s.broadcast(s.metricsHub, msg, err)
}

// DrillChanged implements coach.Notifier.
func (s *Server) DrillChanged(c drill.Change) {
	data := protocol.DrillData{View: string(c.View)}
	if c.Current != nil {
		data.ID = c.Current.ID
		data.Name = c.Current.Name
		data.Active = true
	}
	msg, err := protocol.NewDrillMessage(data)
	s.broadcast(s.statusHub, msg, err)
}

// StatusChanged implements coach.Notifier.
func (s *Server) StatusChanged(st coach.Status) {
	msg, err := protocol.NewStatusMessage(protocol.StatusData{
		SessionID: st.SessionID,
		Running:   st.Running,
		Mode:      st.Mode,
		Avatar:    st.Avatar,
		Fallback:  st.Fallback,
		Drill:     st.Drill,
		View:      string(st.View),
		Frames:    st.Frames,
	})
	s.broadcast(s.statusHub, msg, err)
}

func (s *Server) broadcast(h *hub.Hub, msg *protocol.Message, err error) {
	if err == nil {
		err = h.BroadcastJSON(msg)
	}
	if err != nil {
		s.logger.Warn("broadcast failed", "hub", h.Name(), "error", err)
	}
}

var (
	_ feedback.Sink  = (*Server)(nil)
	_ coach.Notifier = (*Server)(nil)
)
