package http

import (
	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/proto"
)

func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventCode:
		return proto.Outbound{
			Type:     proto.OutboundTypeCode,
			Content:  ev.Content,
			Username: ev.Username,
		}
	case core.EventOutput:
		return proto.Outbound{
			Type:    proto.OutboundTypeOutput,
			Content: ev.Content,
		}
	default:
		return proto.Outbound{
			Type:    proto.OutboundTypeStatus,
			Content: ev.Content,
		}
	}
}

func eventLabel(kind core.EventKind) string {
	switch kind {
	case core.EventCode:
		return proto.OutboundTypeCode
	case core.EventOutput:
		return proto.OutboundTypeOutput
	default:
		return proto.OutboundTypeStatus
	}
}
