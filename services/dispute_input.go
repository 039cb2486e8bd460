package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Dosada05/tournament-platform/models"
	"github.com/go-playground/validator/v10"
)

// DisputeInput is either MatchResultInput or ComplaintInput.
type DisputeInput interface {
	Category() models.DisputeCategory
	common() DisputeBase
}

type DisputeBase struct {
	MatchID      int  `json:"match_id" validate:"required,gt=0"`
	OpponentID   int  `json:"opponent_id" validate:"required,gt=0"`
	TournamentID *int `json:"tournament_id,omitempty" validate:"omitempty,gt=0"`
}

func (b DisputeBase) common() DisputeBase { return b }

// MatchResultInput - заявленный игроком счёт матча; скриншот обязателен.
type MatchResultInput struct {
	DisputeBase
	PlayerScore   *int   `json:"player_score" validate:"required,gte=0"`
	OpponentScore *int   `json:"opponent_score" validate:"required,gte=0"`
	ProofURL      string `json:"proof_url" validate:"required,url,startswith=https://"`
	Description   string `json:"description"`
}

func (MatchResultInput) Category() models.DisputeCategory { return models.CategoryMatchResult }

// ComplaintInput - жалоба на соперника; описание обязательно.
type ComplaintInput struct {
	DisputeBase
	Description string `json:"description" validate:"notblank"`
	ProofURL    string `json:"proof_url" validate:"omitempty,url,startswith=https://"`
}

func (ComplaintInput) Category() models.DisputeCategory { return models.CategoryComplaint }

// CreateDisputeRequest is the wire shape of POST /disputes.
type CreateDisputeRequest struct {
	Category      string `json:"category"`
	MatchID       int    `json:"match_id"`
	OpponentID    int    `json:"opponent_id"`
	TournamentID  *int   `json:"tournament_id,omitempty"`
	Description   string `json:"description"`
	PlayerScore   *int   `json:"player_score,omitempty"`
	OpponentScore *int   `json:"opponent_score,omitempty"`
	ProofURL      string `json:"proof_url,omitempty"`
}

// Input converts the flat request into the category-specific input.
func (r CreateDisputeRequest) Input() (DisputeInput, error) {
	base := DisputeBase{MatchID: r.MatchID, OpponentID: r.OpponentID, TournamentID: r.TournamentID}
	switch models.DisputeCategory(strings.TrimSpace(r.Category)) {
	case models.CategoryMatchResult:
		return MatchResultInput{
			DisputeBase:   base,
			PlayerScore:   r.PlayerScore,
			OpponentScore: r.OpponentScore,
			ProofURL:      strings.TrimSpace(r.ProofURL),
			Description:   strings.TrimSpace(r.Description),
		}, nil
	case models.CategoryComplaint:
		return ComplaintInput{
			DisputeBase: base,
			Description: strings.TrimSpace(r.Description),
			ProofURL:    strings.TrimSpace(r.ProofURL),
		}, nil
	case "":
		return nil, newValidationError("category", "is required")
	default:
		return nil, newValidationError("category", fmt.Sprintf("must be one of %s, %s", models.CategoryMatchResult, models.CategoryComplaint))
	}
}

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validateStruct runs struct tags and reports the first failing field as *ValidationError.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	fe := fieldErrs[0]
	return newValidationError(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "startswith":
		return "must start with " + fe.Param()
	default:
		return "is invalid"
	}
}
