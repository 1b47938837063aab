package biz

import (
	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/usecase"
)

// Usecases contains the usecases of one running bot; unused ones are nil
type Usecases struct {
	Store    *usecase.StateStore
	Alarms   *usecase.AlarmUsecase
	Commands *usecase.CommandUsecase
	Inspect  *usecase.InspectUsecase
	Matcher  *domain.Matcher
}
