package handlers

import (
	intakesvc "github.com/clinicore/docintake/internal/service/intake"
	"github.com/clinicore/docintake/pkg/logger"
)

type Handlers struct {
	Intake *IntakeHandler
}

func NewHandlers(
	intakeService intakesvc.IntakeService,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Intake: NewIntakeHandler(intakeService, logger),
	}
}
