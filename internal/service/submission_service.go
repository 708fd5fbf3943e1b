package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/carbon-credit-backend/internal/co2ctx"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/location"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"go.uber.org/zap"
)

const estimateTimeout = 8 * time.Second

// CO2Estimator is implemented by ai.TreeCO2Client.
type CO2Estimator interface {
	Estimate(ctx context.Context, cropType, area, trees string) (float64, error)
}

// FarmSubmission is one farm-data upload. DocumentText is the extracted text
// of an attached PDF, if any.
type FarmSubmission struct {
	Area         string
	Trees        string
	CropType     string
	Photos       []location.PhotoRef
	Geo          *model.Location
	DocumentName string
	DocumentText string
}

type SubmissionResult struct {
	Credits  int64             `json:"credits"`
	Balance  int64             `json:"carbonBalance"`
	Entry    model.CreditEntry `json:"entry"`
	Location *model.Location   `json:"location,omitempty"`
	CO2Kg    *float64          `json:"co2Kg,omitempty"`
}

type SubmissionService interface {
	Submit(ctx context.Context, uid string, in FarmSubmission) (*SubmissionResult, error)
}

type submissionService struct {
	ledger    LedgerService
	locator   location.Provider
	estimator CO2Estimator
	logger    *zap.Logger
}

// NewSubmissionService builds the upload flow. locator and estimator may be nil.
func NewSubmissionService(ledger LedgerService, locator location.Provider, estimator CO2Estimator, logger *zap.Logger) SubmissionService {
	return &submissionService{ledger: ledger, locator: locator, estimator: estimator, logger: logger}
}

func (s *submissionService) Submit(ctx context.Context, uid string, in FarmSubmission) (*SubmissionResult, error) {
	in = fillFromDocument(in)
	if err := validateSubmission(in); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	ctx = co2ctx.WithSubmissionID(ctx, id)
	log := s.logger.With(zap.String("uid", uid), zap.String("submission", id), zap.String("rid", co2ctx.RID(ctx)))

	loc := s.resolveLocation(ctx, in, log)
	credits := CreditsFromInput(in.Area, in.Trees)
	entry := model.CreditEntry{
		ID:       id,
		Date:     SystemClock.Now(),
		Activity: activityFor(in.CropType),
		Credits:  credits,
		Type:     entryType(in.CropType, in.Trees),
		Location: loc,
	}
	balance, err := s.ledger.Credit(ctx, uid, entry)
	if err != nil {
		return nil, err
	}
	log.Info("submission credited", zap.Int64("credits", credits), zap.Int64("balance", balance))

	res := &SubmissionResult{Credits: credits, Balance: balance, Entry: entry, Location: loc}
	if kg, ok := s.estimate(ctx, in, log); ok {
		res.CO2Kg = &kg
	}
	return res, nil
}

func (s *submissionService) resolveLocation(ctx context.Context, in FarmSubmission, log *zap.Logger) *model.Location {
	if in.Geo != nil {
		return in.Geo
	}
	if s.locator == nil || len(in.Photos) == 0 {
		return nil
	}
	loc, err := s.locator.Locate(ctx, in.Photos[0])
	if err != nil {
		log.Warn("photo location unavailable", zap.String("photo", in.Photos[0].Name), zap.Error(err))
		return nil
	}
	return loc
}

// estimate is best effort; failures are logged and never block the award.
func (s *submissionService) estimate(ctx context.Context, in FarmSubmission, log *zap.Logger) (float64, bool) {
	if s.estimator == nil {
		return 0, false
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	kg, err := s.estimator.Estimate(ctx, in.CropType, in.Area, in.Trees)
	if err != nil {
		log.Warn("co2 estimate skipped", zap.Error(err))
		return 0, false
	}
	return kg, true
}

func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, estimateTimeout)
}

func fillFromDocument(in FarmSubmission) FarmSubmission {
	in.Area = strings.TrimSpace(in.Area)
	in.Trees = strings.TrimSpace(in.Trees)
	in.CropType = strings.TrimSpace(in.CropType)
	if strings.TrimSpace(in.DocumentText) == "" {
		return in
	}
	f := document.ExtractFarmFields(in.DocumentText)
	if in.Area == "" {
		in.Area = f.Area
	}
	if in.Trees == "" {
		in.Trees = f.Trees
	}
	if in.CropType == "" {
		in.CropType = f.CropType
	}
	return in
}

func validateSubmission(in FarmSubmission) error {
	if len(in.Photos) == 0 && in.DocumentName == "" && strings.TrimSpace(in.DocumentText) == "" {
		return invalid("photos", "at least one photo or document is required")
	}
	if strings.HasPrefix(in.Area, "-") {
		return invalid("area", "must not be negative")
	}
	if strings.HasPrefix(in.Trees, "-") {
		return invalid("trees", "must not be negative")
	}
	return CheckFarmInput(in.Area, in.Trees)
}

func entryType(crop, trees string) model.CreditType {
	c := strings.ToLower(crop)
	switch {
	case strings.Contains(c, "rice"), strings.Contains(c, "paddy"):
		return model.CreditTypeRice
	case strings.Contains(c, "tree"), strings.Contains(c, "agroforestry"), trees != "":
		return model.CreditTypeTrees
	}
	return model.CreditTypeOther
}

func activityFor(crop string) string {
	if crop == "" {
		return "Farm data submission"
	}
	return fmt.Sprintf("Farm data submission (%s)", crop)
}
