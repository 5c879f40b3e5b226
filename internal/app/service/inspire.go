package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jose-valero/soup-bot/internal/app/command"
)

// MaxFlowLines acota el largo de la respuesta de /flow.
const MaxFlowLines = 8

type InspireService struct {
	api InspireAPI
}

func NewInspireService(api InspireAPI) *InspireService {
	return &InspireService{api: api}
}

func (s *InspireService) Quote(ctx context.Context, _ *command.Ctx) (command.Action, error) {
	u, err := s.api.Quote(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return command.Reply{AttachmentURL: u}, nil
}

func (s *InspireService) Flow(ctx context.Context, _ *command.Ctx) (command.Action, error) {
	lines, err := s.api.Flow(ctx)
	if err != nil {
		return nil, fmt.Errorf("flow: %w", err)
	}
	if len(lines) > MaxFlowLines {
		lines = lines[:MaxFlowLines]
	}
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("> ")
		b.WriteString(l)
	}
	return command.Reply{Content: b.String()}, nil
}
