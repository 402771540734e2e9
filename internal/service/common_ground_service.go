package service

import (
	"context"
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

type ICommonGroundService interface {
	// ComputeCommonGround analyses both participants' shared needs once per
	// session. It reports false while another request is running the analysis.
	ComputeCommonGround(ctx context.Context, sessionId uuid.UUID) (bool, error)
	GetCommonGround(ctx context.Context, sessionId, userId uuid.UUID) (*dto.CommonGroundResponse, error)
	ConfirmCommonGround(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConfirmCommonGroundRequest) (*dto.ConfirmCommonGroundResponse, error)
}

type commonGroundService struct {
	uowFactory  unitofwork.RepositoryFactory
	analyzer    analysis.Analyzer
	coordinator extraction.Coordinator
	gateway     IPartnerGateway
	transitions ITransitionRequester
	logger      logger.ILogger
}

func NewCommonGroundService(
	uowFactory unitofwork.RepositoryFactory,
	analyzer analysis.Analyzer,
	coordinator extraction.Coordinator,
	gateway IPartnerGateway,
	transitions ITransitionRequester,
	log logger.ILogger,
) ICommonGroundService {
	return &commonGroundService{
		uowFactory:  uowFactory,
		analyzer:    analyzer,
		coordinator: coordinator,
		gateway:     gateway,
		transitions: transitions,
		logger:      log,
	}
}

func (s *commonGroundService) ComputeCommonGround(ctx context.Context, sessionId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	vessel, err := uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId)
	if err != nil {
		return false, err
	}
	if vessel.Analyzed() {
		return true, nil
	}

	// uuid.Nil keys the session-wide analysis apart from per-participant extraction.
	granted, err := s.coordinator.TryAcquire(ctx, sessionId, uuid.Nil)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}
	defer func() {
		if err := s.coordinator.Release(context.WithoutCancel(ctx), sessionId, uuid.Nil); err != nil {
			s.logger.Warn("ExtractionLock", "Failed to release common ground lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	vessel, err = uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId)
	if err != nil {
		return false, err
	}
	if vessel.Analyzed() {
		return true, nil
	}

	session, err := uow.SessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, apperror.NotFound("session", sessionId)
	}
	participants := session.ParticipantIds()
	if len(participants) != 2 {
		return false, apperror.Conflict("common ground needs both participants")
	}

	needsA, err := s.sharedNeeds(ctx, uow, sessionId, participants[0])
	if err != nil {
		return false, err
	}
	needsB, err := s.sharedNeeds(ctx, uow, sessionId, participants[1])
	if err != nil {
		return false, err
	}

	overlap, err := s.analyzer.FindOverlap(ctx, needsA, needsB)
	if err != nil {
		return false, apperror.Collaborator("common ground analysis failed", err, true)
	}

	tx := s.uowFactory.NewUnitOfWork(ctx)
	if err := tx.Begin(ctx); err != nil {
		return false, err
	}
	defer tx.Rollback()

	locked, err := tx.VesselRepository().FindSharedVesselForUpdate(ctx, sessionId)
	if err != nil {
		return false, err
	}
	if locked == nil {
		return false, apperror.NotFound("shared vessel", sessionId)
	}
	if locked.Analyzed() {
		return true, nil
	}

	now := time.Now()
	items := make([]*entity.CommonGround, 0, len(overlap))
	for _, o := range overlap {
		category, ok := entity.ParseNeedCategory(o.Category)
		if !ok {
			s.logger.Warn("CommonGroundService", "Unknown need category, filed under CONNECTION", map[string]interface{}{
				"session_id": sessionId.String(),
				"category":   o.Category,
			})
		}
		items = append(items, &entity.CommonGround{
			Id:             uuid.New(),
			SharedVesselId: locked.Id,
			Category:       category,
			Need:           o.Need,
			CreatedAt:      now,
		})
	}
	if len(items) > 0 {
		if err := tx.CommonGroundRepository().CreateBulk(ctx, items); err != nil {
			return false, err
		}
	}

	locked.CommonGroundAnalyzedAt = &now
	locked.UpdatedAt = &now
	if err := tx.VesselRepository().UpdateSharedVessel(ctx, locked); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.logger.Info("CommonGroundService", "Common ground computed", map[string]interface{}{
		"session_id": sessionId.String(),
		"count":      len(items),
	})
	s.gateway.PublishSessionEvent(ctx, session, events.CommonGroundReady, map[string]interface{}{
		"count": len(items),
	})

	return true, nil
}

// sharedNeeds returns the needs a participant has both confirmed and consented
// to reveal.
func (s *commonGroundService) sharedNeeds(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) ([]analysis.NeedSummary, error) {
	vessel, err := uow.VesselRepository().FindUserVessel(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if vessel == nil {
		return []analysis.NeedSummary{}, nil
	}

	needs, err := uow.IdentifiedNeedRepository().FindByVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}
	consents, err := uow.ConsentRepository().FindByRequester(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	granted := grantedTargets(consents)

	out := make([]analysis.NeedSummary, 0, len(needs))
	for _, n := range needs {
		if n.Confirmed && granted[n.Id] {
			out = append(out, analysis.NeedSummary{Category: string(n.Category), Need: n.Need})
		}
	}
	return out, nil
}

func grantedTargets(records []*entity.ConsentRecord) map[uuid.UUID]bool {
	granted := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		if r.TargetType == entity.ConsentTargetIdentifiedNeed && r.Decision == entity.ConsentGranted {
			granted[r.TargetId] = true
		}
	}
	return granted
}

// bothShared reports whether both participants have set needsShared.
func bothShared(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) (bool, error) {
	participants := session.ParticipantIds()
	if len(participants) != 2 {
		return false, nil
	}
	for _, id := range participants {
		row, err := uow.StageProgressRepository().FindByStage(ctx, session.Id, id, gate.StageNeedsMapping)
		if err != nil {
			return false, err
		}
		if row == nil || !row.Gates.Satisfied(gate.NeedsShared) {
			return false, nil
		}
	}
	return true, nil
}

// GetCommonGround returns the session's common ground from the caller's point
// of view. When both participants have shared but nothing was analysed yet the
// analysis runs here.
func (s *commonGroundService) GetCommonGround(ctx context.Context, sessionId, userId uuid.UUID) (*dto.CommonGroundResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	vessel, err := uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	if !vessel.Analyzed() {
		shared, err := bothShared(ctx, uow, session)
		if err != nil {
			return nil, err
		}
		if !shared {
			return &dto.CommonGroundResponse{Status: dto.CommonGroundNotReady, Items: []dto.CommonGroundItemResponse{}}, nil
		}

		analyzed, err := s.ComputeCommonGround(ctx, sessionId)
		if err != nil {
			return nil, err
		}
		if !analyzed {
			return &dto.CommonGroundResponse{Status: dto.CommonGroundComputing, Items: []dto.CommonGroundItemResponse{}}, nil
		}

		vessel, err = uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId)
		if err != nil {
			return nil, err
		}
	}

	items, err := uow.CommonGroundRepository().FindBySharedVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}

	slot := session.Member(userId).Slot
	res := &dto.CommonGroundResponse{
		Status:    dto.CommonGroundReady,
		NoOverlap: len(items) == 0,
		Items:     make([]dto.CommonGroundItemResponse, 0, len(items)),
	}
	for _, item := range items {
		res.Items = append(res.Items, toCommonGroundItem(item, slot))
	}
	return res, nil
}

func toCommonGroundItem(item *entity.CommonGround, slot entity.Slot) dto.CommonGroundItemResponse {
	partnerSlot := entity.SlotB
	if slot == entity.SlotB {
		partnerSlot = entity.SlotA
	}
	return dto.CommonGroundItemResponse{
		Id:                 item.Id,
		Category:           string(item.Category),
		Need:               item.Need,
		ConfirmedByMe:      item.ConfirmedBySlot(slot),
		ConfirmedByPartner: item.ConfirmedBySlot(partnerSlot),
		ConfirmedAt:        item.ConfirmedAt,
	}
}

// ConfirmCommonGround records the caller's confirmation of common ground.
//
// With no common ground rows any confirmation completes the needs stage for
// both participants at once. Otherwise the caller's slot flag is set on each
// named row, and the stage completes for both once every row carries both
// flags. The decision is taken under the shared vessel lock against the
// stored rows, so two simultaneous confirmations complete the stage once.
func (s *commonGroundService) ConfirmCommonGround(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ConfirmCommonGroundRequest) (*dto.ConfirmCommonGroundResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	vessel, err := uow.VesselRepository().FindSharedVesselForUpdate(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	repo := uow.StageProgressRepository()
	current, err := repo.FindCurrent(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	if session.Status != entity.SessionStatusActive {
		return &dto.ConfirmCommonGroundResponse{StageActionResult: *blockedResult(constant.BlockedSessionNotActive, current)}, nil
	}
	if current == nil || current.Stage < gate.StageNeedsMapping {
		return &dto.ConfirmCommonGroundResponse{StageActionResult: *blockedResult(constant.BlockedWrongStage, current)}, nil
	}
	if current.Stage > gate.StageNeedsMapping {
		return &dto.ConfirmCommonGroundResponse{StageActionResult: *okResult(current)}, nil
	}
	if vessel == nil || !vessel.Analyzed() {
		return &dto.ConfirmCommonGroundResponse{StageActionResult: *blockedResult(constant.BlockedCommonGroundNotReady, current)}, nil
	}

	items, err := uow.CommonGroundRepository().FindBySharedVessel(ctx, vessel.Id)
	if err != nil {
		return nil, err
	}

	participants := session.ParticipantIds()
	now := time.Now()
	completed := false

	if len(items) == 0 {
		for _, id := range participants {
			if err := markCommonGroundConfirmed(ctx, uow, sessionId, id, now); err != nil {
				return nil, err
			}
		}
		completed, err = CompleteSharedStage(ctx, uow, sessionId, participants, gate.StageNeedsMapping, now)
		if err != nil {
			return nil, err
		}
	} else {
		if req.NoOverlap {
			return nil, apperror.Validation("common ground exists; confirm it by id", nil)
		}
		if len(req.CommonGroundIds) == 0 {
			return nil, apperror.Validation("common_ground_ids is required", nil)
		}

		byId := make(map[uuid.UUID]*entity.CommonGround, len(items))
		for _, item := range items {
			byId[item.Id] = item
		}
		for _, id := range req.CommonGroundIds {
			if _, ok := byId[id]; !ok {
				return nil, apperror.Validation("invalid common ground ids", apperror.ErrUnknownCommonGround)
			}
		}

		slot := session.Member(userId).Slot
		for _, id := range req.CommonGroundIds {
			item := byId[id]
			if item.ConfirmedBySlot(slot) {
				continue
			}
			item.ConfirmBy(slot, now)
			if err := uow.CommonGroundRepository().Update(ctx, item); err != nil {
				return nil, err
			}
		}

		allMine, allBoth := true, true
		for _, item := range items {
			allMine = allMine && item.ConfirmedBySlot(slot)
			allBoth = allBoth && item.ConfirmedByBoth()
		}

		if allMine {
			if err := markCommonGroundConfirmed(ctx, uow, sessionId, userId, now); err != nil {
				return nil, err
			}
		}
		if allBoth {
			completed, err = CompleteSharedStage(ctx, uow, sessionId, participants, gate.StageNeedsMapping, now)
			if err != nil {
				return nil, err
			}
		}
	}

	after, err := repo.FindCurrent(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if completed {
		s.logger.Info("CommonGroundService", "Needs mapping completed for both participants", map[string]interface{}{
			"session_id": sessionId.String(),
			"no_overlap": len(items) == 0,
		})
		for _, id := range participants {
			s.transitions.RequestTransition(ctx, sessionId, id, gate.StageNeedsMapping, gate.StageAgreement, "common ground confirmed")
		}
		s.gateway.PublishSessionEvent(ctx, session, events.StageCompleted, map[string]interface{}{
			"stage": int(gate.StageNeedsMapping),
		})
	} else if partnerId, ok := session.Partner(userId); ok {
		s.gateway.Notify(ctx, sessionId, partnerId, events.PartnerCommonGroundConfirmed, nil)
	}

	return &dto.ConfirmCommonGroundResponse{
		StageActionResult:    *okResult(after),
		SharedStageCompleted: completed,
	}, nil
}

// markCommonGroundConfirmed sets the stage 3 commonGroundConfirmed gate on a
// participant's open row.
func markCommonGroundConfirmed(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID, now time.Time) error {
	repo := uow.StageProgressRepository()
	row, err := repo.FindByStage(ctx, sessionId, userId, gate.StageNeedsMapping)
	if err != nil {
		return err
	}
	if row == nil || row.IsCompleted() || row.Gates.Satisfied(gate.CommonGroundConfirmed) {
		return nil
	}
	if row.Gates == nil {
		row.Gates = gate.Map{}
	}
	if err := row.Gates.Mark(gate.CommonGroundConfirmed, now); err != nil {
		return err
	}
	row.RefreshStatus(now)
	return repo.Update(ctx, row)
}
