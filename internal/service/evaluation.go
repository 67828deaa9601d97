package service

import (
	"fmt"
	"time"

	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/internal/utils"

	"github.com/sirupsen/logrus"
)

// EvaluationService records blind judgments. Evaluations are append-only
// and at most one exists per generation.
type EvaluationService struct {
	expRepo   *repository.ExperimentRepository
	genRepo   *repository.GenerationRepository
	blindRepo *repository.BlindMappingRepository
	evalRepo  *repository.EvaluationRepository
	logger    *logrus.Logger
}

// NewEvaluationService creates an evaluation recorder.
func NewEvaluationService(
	expRepo *repository.ExperimentRepository,
	genRepo *repository.GenerationRepository,
	blindRepo *repository.BlindMappingRepository,
	evalRepo *repository.EvaluationRepository,
	logger *logrus.Logger,
) *EvaluationService {
	return &EvaluationService{
		expRepo:   expRepo,
		genRepo:   genRepo,
		blindRepo: blindRepo,
		evalRepo:  evalRepo,
		logger:    logger,
	}
}

// Submit validates and persists one judgment, consumes the blind item,
// and completes the experiment once every item is evaluated. Rejections
// leave all state unchanged.
func (s *EvaluationService) Submit(experimentID uint, req *dto.SubmitEvaluationRequest) (*models.Evaluation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	exp, err := s.expRepo.GetByID(experimentID)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	mapping, err := s.blindRepo.GetByBlindID(req.BlindID)
	if err != nil {
		return nil, fmt.Errorf("%w: blind id %s", ErrNotFound, req.BlindID)
	}
	if mapping.ExperimentID != exp.ID {
		return nil, fmt.Errorf("%w: blind id %s", ErrNotFound, req.BlindID)
	}

	exists, err := s.evalRepo.ExistsByGenerationID(mapping.GenerationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if exists || mapping.Consumed {
		return nil, fmt.Errorf("%w: this item was already evaluated", ErrDuplicateEvaluation)
	}

	ev := &models.Evaluation{
		GenerationID:    mapping.GenerationID,
		ExperimentID:    exp.ID,
		BlindID:         mapping.BlindID,
		VoiceMatch:      req.VoiceMatch,
		Coherence:       req.Coherence,
		Engaging:        req.Engaging,
		MeetsBrief:      req.MeetsBrief,
		OverallQuality:  req.OverallQuality,
		EditTimeMinutes: req.EditTimeMinutes,
		WouldPublish:    req.WouldPublish,
		Notes:           req.Notes,
		EvaluatedAt:     time.Now(),
	}

	if err := s.evalRepo.Create(ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.blindRepo.MarkConsumed(mapping); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.WithFields(logrus.Fields{
		"experiment_id":   exp.ID,
		"blind_id":        mapping.BlindID,
		"overall_quality": req.OverallQuality,
	}).Info("evaluation recorded")

	if err := s.maybeComplete(exp); err != nil {
		return nil, err
	}

	return ev, nil
}

// maybeComplete advances the experiment to complete when every blind
// item has been consumed.
func (s *EvaluationService) maybeComplete(exp *models.Experiment) error {
	total, consumed, err := s.blindRepo.CountByExperiment(exp.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if total == 0 || consumed < total {
		return nil
	}
	if exp.Status.Rank() >= models.StatusComplete.Rank() {
		return nil
	}

	if err := s.expRepo.UpdateStatus(exp.ID, models.StatusComplete); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.WithField("experiment_id", exp.ID).Info("experiment complete")
	return nil
}
