package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"

	"github.com/sirupsen/logrus"
)

// blindIDAlphabet excludes easily confused characters so ids can be read
// back over a call if needed.
const blindIDAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const blindIDLength = 10

// BlindService presents success generations to the evaluator under
// opaque identifiers in a shuffled order, with all provenance stripped.
type BlindService struct {
	expRepo   *repository.ExperimentRepository
	genRepo   *repository.GenerationRepository
	taskRepo  *repository.TaskRepository
	blindRepo *repository.BlindMappingRepository
	logger    *logrus.Logger
}

// NewBlindService creates a blind assignment service.
func NewBlindService(
	expRepo *repository.ExperimentRepository,
	genRepo *repository.GenerationRepository,
	taskRepo *repository.TaskRepository,
	blindRepo *repository.BlindMappingRepository,
	logger *logrus.Logger,
) *BlindService {
	return &BlindService{
		expRepo:   expRepo,
		genRepo:   genRepo,
		taskRepo:  taskRepo,
		blindRepo: blindRepo,
		logger:    logger,
	}
}

// Next returns the unconsumed item with the lowest position, or a
// terminal item with Done set when the queue is drained. Returning an
// item does not consume it; consumption happens on submit or skip.
func (s *BlindService) Next(experimentID uint) (*dto.BlindItem, error) {
	exp, err := s.expRepo.GetByID(experimentID)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	if exp.Status.Rank() < models.StatusEvaluating.Rank() {
		return nil, fmt.Errorf("%w: experiment is %s, not ready for evaluation", ErrInvalidState, exp.Status)
	}

	if err := s.ensureMappings(exp.ID); err != nil {
		return nil, err
	}

	total, consumed, err := s.blindRepo.CountByExperiment(exp.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	mapping, err := s.blindRepo.NextUnconsumed(exp.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if mapping == nil {
		return &dto.BlindItem{Done: true, Evaluated: int(consumed), Total: int(total)}, nil
	}

	gen, err := s.genRepo.GetByID(mapping.GenerationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	task, err := s.taskRepo.GetByID(gen.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Provider, model and strategy deliberately never leave this layer.
	return &dto.BlindItem{
		BlindID:         mapping.BlindID,
		Content:         gen.GeneratedContent,
		TaskTitle:       task.Title,
		TaskDescription: task.Description,
		ContentType:     string(task.ContentType),
		Evaluated:       int(consumed),
		Total:           int(total),
	}, nil
}

// Skip defers an item to the back of the queue without consuming it.
func (s *BlindService) Skip(experimentID uint, blindID string) error {
	mapping, err := s.blindRepo.GetByBlindID(blindID)
	if err != nil {
		return fmt.Errorf("%w: blind id %s", ErrNotFound, blindID)
	}
	if mapping.ExperimentID != experimentID {
		return fmt.Errorf("%w: blind id %s", ErrNotFound, blindID)
	}
	if mapping.Consumed {
		return fmt.Errorf("%w: item is already evaluated and cannot be skipped", ErrInvalidState)
	}

	maxPos, err := s.blindRepo.MaxPosition(experimentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.blindRepo.Defer(mapping, maxPos+1); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Progress returns (evaluated, total) counts.
func (s *BlindService) Progress(experimentID uint) (*dto.EvaluationProgress, error) {
	if _, err := s.expRepo.GetByID(experimentID); err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	total, consumed, err := s.blindRepo.CountByExperiment(experimentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &dto.EvaluationProgress{Evaluated: int(consumed), Total: int(total)}, nil
}

// ensureMappings creates a mapping for every success generation that has
// none yet, with fresh random identifiers and shuffled positions
// appended after the existing queue.
func (s *BlindService) ensureMappings(experimentID uint) error {
	gens, err := s.genRepo.ListByExperimentAndStatus(experimentID, models.GenerationSuccess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	mappedIDs, err := s.blindRepo.ListMappedGenerationIDs(experimentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	mapped := make(map[uint]bool, len(mappedIDs))
	for _, id := range mappedIDs {
		mapped[id] = true
	}

	var unmapped []models.Generation
	for _, g := range gens {
		if !mapped[g.ID] {
			unmapped = append(unmapped, g)
		}
	}
	if len(unmapped) == 0 {
		return nil
	}

	maxPos, err := s.blindRepo.MaxPosition(experimentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Uniform random permutation of presentation positions, so sorting by
	// position (or by identifier) never reproduces generation order.
	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(unmapped), func(i, j int) {
		unmapped[i], unmapped[j] = unmapped[j], unmapped[i]
	})

	mappings := make([]models.BlindMapping, 0, len(unmapped))
	for i, g := range unmapped {
		blindID, err := newBlindID()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		mappings = append(mappings, models.BlindMapping{
			ExperimentID: experimentID,
			GenerationID: g.ID,
			BlindID:      blindID,
			Position:     maxPos + 1 + i,
		})
	}

	if err := s.blindRepo.CreateBatch(mappings); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.WithFields(logrus.Fields{
		"experiment_id": experimentID,
		"mappings":      len(mappings),
	}).Info("blind mappings created")

	return nil
}

// newBlindID generates an unguessable identifier. crypto/rand keeps ids
// structurally unrelated to generation order.
func newBlindID() (string, error) {
	buf := make([]byte, blindIDLength)
	alphabetLen := big.NewInt(int64(len(blindIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = blindIDAlphabet[n.Int64()]
	}
	return "B-" + string(buf), nil
}
