package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions"
	"gorm.io/gorm"
)

var (
	// ErrProposalNotFound indicates the proposal was not found
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrInvalidProposalStatus indicates a disallowed proposal status value
	ErrInvalidProposalStatus = errors.New("invalid proposal status")
	// ErrInvalidStatusTransition indicates a disallowed status change
	ErrInvalidStatusTransition = errors.New("invalid proposal status transition")
)

// ProposalService handles proposal storage, status transitions, scoring
// and ranking
type ProposalService struct {
	db         *gorm.DB
	processor  *functions.Processor
	logService *LogService
}

// NewProposalService creates a new ProposalService instance
func NewProposalService(db *gorm.DB, processor *functions.Processor, logService *LogService) *ProposalService {
	return &ProposalService{
		db:         db,
		processor:  processor,
		logService: logService,
	}
}

// CreateFromExtraction persists a proposal built from an extraction result
func (s *ProposalService) CreateFromExtraction(rfpID, vendorID uint, result *functions.ExtractionResult) (*models.Proposal, error) {
	return s.createFromExtraction(s.db, rfpID, vendorID, result)
}

// createFromExtraction writes the proposal through db, which may be a
// transaction shared with the inbound email bookkeeping
func (s *ProposalService) createFromExtraction(db *gorm.DB, rfpID, vendorID uint, result *functions.ExtractionResult) (*models.Proposal, error) {
	proposal := &models.Proposal{
		RFPID:          rfpID,
		VendorID:       vendorID,
		ExtractedJSON:  result.ExtractedJSON,
		PriceAmount:    result.PriceAmount,
		PriceCurrency:  result.PriceCurrency,
		DeliveryDays:   result.DeliveryDays,
		PaymentTerms:   result.PaymentTerms,
		Warranty:       result.Warranty,
		Summary:        result.Summary,
		FallbackParsed: result.ExtractedBy == functions.ExtractorModeLocal,
		Status:         string(models.ProposalStatusReceived),
		ReceivedAt:     result.ExtractedAt,
	}

	if err := db.Create(proposal).Error; err != nil {
		return nil, err
	}
	return proposal, nil
}

// GetProposalByID returns a proposal with its vendor preloaded
func (s *ProposalService) GetProposalByID(id uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.Preload("Vendor").First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// ListProposalsByRFP returns an RFP's proposals ranked by score descending,
// ties broken by lower price; unscored proposals come last
func (s *ProposalService) ListProposalsByRFP(rfpID uint) ([]models.Proposal, error) {
	var exists models.RFP
	if err := s.db.First(&exists, rfpID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRFPNotFound
		}
		return nil, err
	}

	var proposals []models.Proposal
	if err := s.db.Preload("Vendor").Where("rfp_id = ?", rfpID).Find(&proposals).Error; err != nil {
		return nil, err
	}

	RankProposals(proposals)
	return proposals, nil
}

// RankProposals orders proposals in place: score descending, then price
// ascending, unscored last
func RankProposals(proposals []models.Proposal) {
	sort.SliceStable(proposals, func(i, j int) bool {
		si, sj := proposals[i].AIScore, proposals[j].AIScore
		switch {
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		case si != nil && sj != nil && *si != *sj:
			return *si > *sj
		}
		pi, pj := proposals[i].PriceAmount, proposals[j].PriceAmount
		if pi > 0 && pj > 0 && pi != pj {
			return pi < pj
		}
		return pi > 0 && pj <= 0
	})
}

// UpdateProposalStatus applies a status transition. Accepting a proposal
// awards the RFP and rejects its open siblings.
func (s *ProposalService) UpdateProposalStatus(id uint, status string) (*models.Proposal, error) {
	newStatus := models.ProposalStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, ErrInvalidProposalStatus
	}

	proposal, err := s.GetProposalByID(id)
	if err != nil {
		return nil, err
	}

	current := models.ProposalStatus(proposal.Status)
	if !current.CanTransitionTo(newStatus) {
		return nil, ErrInvalidStatusTransition
	}

	proposal.Status = string(newStatus)
	if err := s.db.Model(&models.Proposal{}).Where("id = ?", id).Update("status", proposal.Status).Error; err != nil {
		return nil, err
	}

	if newStatus == models.ProposalStatusAccepted {
		if err := s.acceptProposal(proposal); err != nil {
			return nil, err
		}
	}

	s.logService.LogInfo(models.LogModuleProposal, "status_change", "Proposal status changed", map[string]interface{}{
		"proposal_id": id,
		"old_status":  string(current),
		"new_status":  proposal.Status,
	})
	return proposal, nil
}

// acceptProposal awards the RFP and rejects the remaining open proposals
func (s *ProposalService) acceptProposal(accepted *models.Proposal) error {
	if err := s.db.Model(&models.RFP{}).
		Where("id = ?", accepted.RFPID).
		Update("status", string(models.RFPStatusAwarded)).Error; err != nil {
		return err
	}

	return s.db.Model(&models.Proposal{}).
		Where("rfp_id = ? AND id != ? AND status NOT IN ?",
			accepted.RFPID, accepted.ID,
			[]string{string(models.ProposalStatusAccepted), string(models.ProposalStatusRejected)}).
		Update("status", string(models.ProposalStatusRejected)).Error
}

// ScoreRFPProposals scores every unscored proposal of an RFP and persists
// score and evaluation. Returns the number scored.
func (s *ProposalService) ScoreRFPProposals(rfpID uint) (int, error) {
	var rfp models.RFP
	if err := s.db.First(&rfp, rfpID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRFPNotFound
		}
		return 0, err
	}

	var proposals []models.Proposal
	if err := s.db.Preload("Vendor").
		Where("rfp_id = ? AND ai_score IS NULL", rfpID).
		Find(&proposals).Error; err != nil {
		return 0, err
	}

	scored := 0
	for i := range proposals {
		score, evaluation, scoredBy := s.processor.ScoreProposal(&rfp, &proposals[i])

		updates := map[string]interface{}{
			"ai_score":      score,
			"ai_evaluation": evaluation,
		}
		if proposals[i].Status == string(models.ProposalStatusReceived) {
			updates["status"] = string(models.ProposalStatusScored)
		}
		if err := s.db.Model(&models.Proposal{}).Where("id = ?", proposals[i].ID).Updates(updates).Error; err != nil {
			return scored, err
		}
		scored++

		s.logService.LogInfo(models.LogModuleProposal, "score", "Proposal scored", map[string]interface{}{
			"proposal_id": proposals[i].ID,
			"rfp_id":      rfpID,
			"score":       score,
			"scored_by":   string(scoredBy),
		})
	}
	return scored, nil
}

// DeleteProposal removes a proposal and unlinks its inbound email
func (s *ProposalService) DeleteProposal(id uint) error {
	result := s.db.Delete(&models.Proposal{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProposalNotFound
	}
	return s.db.Model(&models.InboundEmail{}).
		Where("proposal_id = ?", id).
		Update("proposal_id", gorm.Expr("NULL")).Error
}

// CountProposalsSince counts proposals received in a recent window
func (s *ProposalService) CountProposalsSince(since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Proposal{}).Where("received_at >= ?", since).Count(&count).Error
	return count, err
}
