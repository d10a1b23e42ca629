package validator

import (
	"errors"

	"cabins/internal/calendar/service"
	reservationvalidator "cabins/internal/reservations/validator"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
	"cabins/pkg/model"
	"cabins/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

// ReconcileInput is a checked reconcile request. Zero From/To mean the
// caller did not choose a horizon.
type ReconcileInput struct {
	RoomIDs []string
	From    days.Day
	To      days.Day
}

type CalendarValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCalendarValidator(log *logger.Logger) *CalendarValidator {
	v, err := reservationvalidator.New()
	if err != nil {
		log.Fatal("Failed to register 'roomid' validator",
			"error", err,
		)
	}

	return &CalendarValidator{
		validate: v,
		logger:   log,
	}
}

func (v *CalendarValidator) ValidateBlock(req *model.BlockRequest) (service.BlockInput, error) {
	req.RoomID = sanitizer.SanitizeID(req.RoomID)
	req.Reason = sanitizer.SanitizeReason(req.Reason)
	if err := v.validate.Struct(req); err != nil {
		return service.BlockInput{}, v.fail(err, "Invalid block request")
	}

	from, _ := days.Parse(req.From)
	to, _ := days.Parse(req.To)
	if !to.After(from) {
		return service.BlockInput{}, apperrors.InvalidInput("to must be after from")
	}

	return service.BlockInput{
		RoomID: req.RoomID,
		From:   from,
		To:     to,
		Reason: req.Reason,
	}, nil
}

func (v *CalendarValidator) ValidateReconcile(req *model.ReconcileRequest) (ReconcileInput, error) {
	req.RoomIDs = sanitizer.SanitizeIDs(req.RoomIDs)
	if err := v.validate.Struct(req); err != nil {
		return ReconcileInput{}, v.fail(err, "Invalid reconcile request")
	}
	if (req.From == "") != (req.To == "") {
		return ReconcileInput{}, apperrors.InvalidInput("from and to must be given together")
	}

	in := ReconcileInput{RoomIDs: req.RoomIDs}
	if req.From != "" {
		in.From, _ = days.Parse(req.From)
		in.To, _ = days.Parse(req.To)
		if !in.To.After(in.From) {
			return ReconcileInput{}, apperrors.InvalidInput("to must be after from")
		}
	}
	return in, nil
}

func (v *CalendarValidator) fail(err error, message string) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		translated := reservationvalidator.TranslateValidationErrors(validationErrs)
		v.logger.Warn(message, "error", translated)
		return translated.AppError(message)
	}
	return apperrors.InvalidInput(message)
}
