package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"cabins/internal/reservations/service"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
	"cabins/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// AppError wraps the failures as an INVALID_INPUT error listing each field.
func (v ValidationErrors) AppError(message string) *apperrors.AppError {
	return apperrors.Validation(message, map[string]any{"errors": []ValidationError(v)})
}

// ReservationValidator checks wire requests and converts them to the typed
// inputs the engine accepts. Strings are never parsed past this point.
type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v, err := New()
	if err != nil {
		log.Fatal("Failed to register 'roomid' validator",
			"error", err,
		)
	}

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// New returns a validator with the "roomid" tag registered.
func New() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("roomid", validateRoomID); err != nil {
		return nil, err
	}
	return v, nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateRoomID(fl validator.FieldLevel) bool {
	return model.IsRoomID(fl.Field().String())
}

func (v *ReservationValidator) ValidateCreate(req *model.CreateReservationRequest) (service.CreateInput, error) {
	if err := v.validate.Struct(req); err != nil {
		return service.CreateInput{}, v.fail(err, "Invalid reservation request")
	}

	// Both layouts were checked by the datetime tag.
	checkIn, _ := days.Parse(req.CheckIn)
	checkOut, _ := days.Parse(req.CheckOut)

	return service.CreateInput{
		RoomID:      req.RoomID,
		RequesterID: req.RequesterID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		PartySize:   req.PartySize,
	}, nil
}

func (v *ReservationValidator) ValidateModify(req *model.ModifyReservationRequest) (service.Patch, error) {
	if req.IsEmpty() {
		return service.Patch{}, apperrors.InvalidInput("No fields to modify")
	}
	if err := v.validate.Struct(req); err != nil {
		return service.Patch{}, v.fail(err, "Invalid reservation update")
	}

	patch := service.Patch{
		RoomID:    req.RoomID,
		PartySize: req.PartySize,
	}
	if req.CheckIn != nil {
		d, _ := days.Parse(*req.CheckIn)
		patch.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, _ := days.Parse(*req.CheckOut)
		patch.CheckOut = &d
	}
	return patch, nil
}

func (v *ReservationValidator) fail(err error, message string) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		translated := TranslateValidationErrors(validationErrs)
		v.logger.Warn(message, "error", translated)
		return translated.AppError(message)
	}
	return apperrors.InvalidInput(message)
}

func TranslateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "roomid":
			message = fmt.Sprintf("%s must be a room identifier of letters, digits, '-' or '_'", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
