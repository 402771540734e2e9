package service

import (
	"context"
	"strings"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/extraction"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type INeedsService interface {
	GetOrComputeNeeds(ctx context.Context, sessionId, userId uuid.UUID) (*dto.NeedsResponse, error)
	AddNeed(ctx context.Context, sessionId, userId uuid.UUID, req *dto.AddNeedRequest) (*dto.AddNeedResponse, error)
	ConfirmNeeds(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConfirmNeedsRequest) (*dto.StageActionResult, error)
	ConsentToShareNeeds(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConsentNeedsRequest) (*dto.ConsentNeedsResponse, error)
}

type needsService struct {
	uowFactory   unitofwork.RepositoryFactory
	analyzer     analysis.Analyzer
	coordinator  extraction.Coordinator
	commonGround ICommonGroundService
	gateway      IPartnerGateway
	logger       logger.ILogger
}

func NewNeedsService(
	uowFactory unitofwork.RepositoryFactory,
	analyzer analysis.Analyzer,
	coordinator extraction.Coordinator,
	commonGround ICommonGroundService,
	gateway IPartnerGateway,
	log logger.ILogger,
) INeedsService {
	return &needsService{
		uowFactory:   uowFactory,
		analyzer:     analyzer,
		coordinator:  coordinator,
		commonGround: commonGround,
		gateway:      gateway,
		logger:       log,
	}
}

// GetOrComputeNeeds returns the caller's needs, extracting them from their
// conversation history on first use. Extraction runs at most once at a time
// per participant; a concurrent caller gets Extracting=true and no data. An
// extraction that found nothing is remembered on the vessel and not repeated.
func (s *needsService) GetOrComputeNeeds(ctx context.Context, sessionId, userId uuid.UUID) (*dto.NeedsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := loadMemberSession(ctx, uow, sessionId, userId); err != nil {
		return nil, err
	}

	vessel, err := uow.VesselRepository().GetOrCreateUserVessel(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	needs, err := uow.IdentifiedNeedRepository().FindByVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}
	if len(needs) > 0 || vessel.NeedsExtracted() {
		return toNeedsResponse(needs), nil
	}

	granted, err := s.coordinator.TryAcquire(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if !granted {
		return &dto.NeedsResponse{Extracting: true, Needs: []dto.NeedResponse{}}, nil
	}
	defer func() {
		if err := s.coordinator.Release(context.WithoutCancel(ctx), sessionId, userId); err != nil {
			s.logger.Warn("ExtractionLock", "Failed to release extraction lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	// A previous holder may have finished between the first read and the acquire.
	vessel, err = uow.VesselRepository().GetOrCreateUserVessel(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	needs, err = uow.IdentifiedNeedRepository().FindByVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}
	if len(needs) > 0 || vessel.NeedsExtracted() {
		return toNeedsResponse(needs), nil
	}

	history, err := uow.MessageRepository().FindHistory(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	candidates, err := s.analyzer.FindNeeds(ctx, toLLMHistory(history))
	if err != nil {
		s.logger.Warn("NeedsService", "Need extraction failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"user_id":    userId.String(),
			"error":      err.Error(),
		})
		return nil, apperror.Collaborator("need extraction failed", err, true)
	}

	now := time.Now()
	extracted := make([]*entity.IdentifiedNeed, 0, len(candidates))
	for _, c := range candidates {
		category, ok := entity.ParseNeedCategory(c.Category)
		if !ok {
			s.logger.Warn("NeedsService", "Unknown need category, filed under CONNECTION", map[string]interface{}{
				"session_id": sessionId.String(),
				"category":   c.Category,
			})
		}
		extracted = append(extracted, &entity.IdentifiedNeed{
			Id:          uuid.New(),
			VesselId:    vessel.Id,
			Category:    category,
			Need:        c.Need,
			Evidence:    c.Evidence,
			Confidence:  c.Confidence,
			AiSuggested: true,
			CreatedAt:   now,
		})
	}
	tx := s.uowFactory.NewUnitOfWork(ctx)
	if err := tx.Begin(ctx); err != nil {
		return nil, err
	}
	defer tx.Rollback()

	first, err := tx.VesselRepository().MarkNeedsExtracted(ctx, vessel.Id, now)
	if err != nil {
		return nil, err
	}
	if first && len(extracted) > 0 {
		if err := tx.IdentifiedNeedRepository().CreateBulk(ctx, extracted); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("NeedsService", "Needs extracted", map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
		"count":      len(extracted),
	})

	stored, err := uow.IdentifiedNeedRepository().FindByVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}
	return toNeedsResponse(stored), nil
}

// AddNeed stores a need the participant states themselves. It counts as
// confirmed with full confidence.
func (s *needsService) AddNeed(ctx context.Context, sessionId, userId uuid.UUID, req *dto.AddNeedRequest) (*dto.AddNeedResponse, error) {
	category, ok := entity.ParseNeedCategory(req.Category)
	if !ok {
		return nil, apperror.Validation("unknown need category "+req.Category, nil)
	}
	text := strings.TrimSpace(req.Need)
	if text == "" {
		return nil, apperror.Validation("need is required", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	current, err := uow.StageProgressRepository().FindCurrent(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusActive {
		return &dto.AddNeedResponse{StageActionResult: *blockedResult(constant.BlockedSessionNotActive, current)}, nil
	}
	if current == nil || current.Stage != gate.StageNeedsMapping || current.IsCompleted() {
		return &dto.AddNeedResponse{StageActionResult: *blockedResult(constant.BlockedWrongStage, current)}, nil
	}

	vessel, err := uow.VesselRepository().GetOrCreateUserVessel(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	need := &entity.IdentifiedNeed{
		Id:         uuid.New(),
		VesselId:   vessel.Id,
		Category:   category,
		Need:       text,
		Evidence:   []string{},
		Confidence: entity.UserAssertedConfidence,
		Confirmed:  true,
		CreatedAt:  time.Now(),
	}
	if err := uow.IdentifiedNeedRepository().Create(ctx, need); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := toNeedResponse(need)
	return &dto.AddNeedResponse{StageActionResult: *okResult(current), Need: &res}, nil
}

// ConfirmNeeds applies corrections, then confirms the named needs and sets the
// needsConfirmed gate. Every id must belong to the caller's own vessel.
func (s *needsService) ConfirmNeeds(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConfirmNeedsRequest) (*dto.StageActionResult, error) {
	if len(req.NeedIds) == 0 {
		return nil, apperror.Validation("need_ids is required", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	repo := uow.StageProgressRepository()
	current, err := repo.FindCurrentForUpdate(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusActive {
		return blockedResult(constant.BlockedSessionNotActive, current), nil
	}
	if current == nil || current.Stage != gate.StageNeedsMapping || current.IsCompleted() {
		return blockedResult(constant.BlockedWrongStage, current), nil
	}

	owned, err := s.ownedNeeds(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}
	for _, id := range req.NeedIds {
		if _, ok := owned[id]; !ok {
			return nil, apperror.Validation("invalid need ids", apperror.ErrNeedsNotOwned)
		}
	}
	for _, c := range req.Corrections {
		if _, ok := owned[c.NeedId]; !ok {
			return nil, apperror.Validation("invalid need ids", apperror.ErrNeedsNotOwned)
		}
	}

	now := time.Now()
	touched := map[uuid.UUID]bool{}

	for _, c := range req.Corrections {
		need := owned[c.NeedId]
		if text := strings.TrimSpace(c.Need); text != "" && text != need.Need {
			need.Need = text
			touched[need.Id] = true
		}
		if c.Category != "" {
			category, ok := entity.ParseNeedCategory(c.Category)
			if !ok {
				return nil, apperror.Validation("unknown need category "+c.Category, nil)
			}
			if category != need.Category {
				need.Category = category
				touched[need.Id] = true
			}
		}
	}

	for _, id := range req.NeedIds {
		need := owned[id]
		if !need.Confirmed {
			need.Confirmed = true
			touched[id] = true
		}
	}

	for id := range touched {
		need := owned[id]
		need.UpdatedAt = &now
		if err := uow.IdentifiedNeedRepository().Update(ctx, need); err != nil {
			return nil, err
		}
	}

	if !current.Gates.Satisfied(gate.NeedsConfirmed) {
		if current.Gates == nil {
			current.Gates = gate.Map{}
		}
		if err := current.Gates.Mark(gate.NeedsConfirmed, now); err != nil {
			return nil, err
		}
		current.RefreshStatus(now)
		if err := repo.Update(ctx, current); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return okResult(current), nil
}

// ConsentToShareNeeds records consent to reveal the named needs and sets the
// needsShared gate. When the partner already shared, common ground is computed
// before returning so their next read does not race an empty result.
func (s *needsService) ConsentToShareNeeds(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConsentNeedsRequest) (*dto.ConsentNeedsResponse, error) {
	if len(req.NeedIds) == 0 {
		return nil, apperror.Validation("need_ids is required", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	// Both participants sharing at once must see each other's gate.
	if _, err := uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId); err != nil {
		return nil, err
	}
	if _, err := uow.VesselRepository().FindSharedVesselForUpdate(ctx, sessionId); err != nil {
		return nil, err
	}

	repo := uow.StageProgressRepository()
	current, err := repo.FindCurrentForUpdate(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusActive {
		return &dto.ConsentNeedsResponse{StageActionResult: *blockedResult(constant.BlockedSessionNotActive, current)}, nil
	}
	if current == nil || current.Stage != gate.StageNeedsMapping || current.IsCompleted() {
		return &dto.ConsentNeedsResponse{StageActionResult: *blockedResult(constant.BlockedWrongStage, current)}, nil
	}

	owned, err := s.ownedNeeds(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}
	for _, id := range req.NeedIds {
		need, ok := owned[id]
		if !ok {
			return nil, apperror.Validation("invalid need ids", apperror.ErrNeedsNotOwned)
		}
		if !need.Confirmed {
			return nil, apperror.Validation("needs not confirmed", apperror.ErrNeedsNotConfirmed)
		}
	}

	existing, err := uow.ConsentRepository().FindByRequester(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	granted := grantedTargets(existing)

	now := time.Now()
	for _, id := range req.NeedIds {
		if granted[id] {
			continue
		}
		record := &entity.ConsentRecord{
			Id:          uuid.New(),
			SessionId:   sessionId,
			RequestedBy: userId,
			TargetType:  entity.ConsentTargetIdentifiedNeed,
			TargetId:    id,
			Decision:    entity.ConsentGranted,
			DecidedAt:   now,
		}
		if err := uow.ConsentRepository().Create(ctx, record); err != nil {
			return nil, err
		}
		granted[id] = true
	}

	newlyShared := false
	if !current.Gates.Satisfied(gate.NeedsShared) {
		if current.Gates == nil {
			current.Gates = gate.Map{}
		}
		if err := current.Gates.Mark(gate.NeedsShared, now); err != nil {
			return nil, err
		}
		current.RefreshStatus(now)
		if err := repo.Update(ctx, current); err != nil {
			return nil, err
		}
		newlyShared = true
	}

	partnerId, hasPartner := session.Partner(userId)
	partnerShared := false
	if hasPartner {
		partnerRow, err := repo.FindByStage(ctx, sessionId, partnerId, gate.StageNeedsMapping)
		if err != nil {
			return nil, err
		}
		partnerShared = partnerRow != nil && partnerRow.Gates.Satisfied(gate.NeedsShared)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if newlyShared && hasPartner {
		s.gateway.Notify(ctx, sessionId, partnerId, events.PartnerNeedsShared, map[string]interface{}{
			"count": len(req.NeedIds),
		})
	}

	res := &dto.ConsentNeedsResponse{StageActionResult: *okResult(current)}
	if partnerShared {
		analyzed, err := s.commonGround.ComputeCommonGround(ctx, sessionId)
		if err != nil {
			// The consent is stored; a later read of common ground retries the analysis.
			s.logger.Warn("NeedsService", "Common ground computation failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			res.CommonGroundPending = true
		} else {
			res.CommonGroundReady = analyzed
			res.CommonGroundPending = !analyzed
		}
	}
	return res, nil
}

func (s *needsService) ownedNeeds(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) (map[uuid.UUID]*entity.IdentifiedNeed, error) {
	vessel, err := uow.VesselRepository().FindUserVessel(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	owned := map[uuid.UUID]*entity.IdentifiedNeed{}
	if vessel == nil {
		return owned, nil
	}

	needs, err := uow.IdentifiedNeedRepository().FindByVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}
	for _, n := range needs {
		owned[n.Id] = n
	}
	return owned, nil
}

func toNeedResponse(n *entity.IdentifiedNeed) dto.NeedResponse {
	evidence := n.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	return dto.NeedResponse{
		Id:          n.Id,
		Category:    string(n.Category),
		Need:        n.Need,
		Evidence:    evidence,
		Confidence:  n.Confidence,
		AiSuggested: n.AiSuggested,
		Confirmed:   n.Confirmed,
		CreatedAt:   n.CreatedAt,
	}
}

func toNeedsResponse(needs []*entity.IdentifiedNeed) *dto.NeedsResponse {
	res := &dto.NeedsResponse{Needs: make([]dto.NeedResponse, 0, len(needs))}
	for _, n := range needs {
		res.Needs = append(res.Needs, toNeedResponse(n))
	}
	return res
}
