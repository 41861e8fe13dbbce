package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

const (
	DefaultAcknowledger = "Kitchen Staff"
	kotIDAttempts       = 5
)

// kotTransitions lists every kitchen status change that is allowed.
// PENDING -> ACKNOWLEDGED -> COMPLETED, nothing goes back.
var kotTransitions = map[string]map[string]bool{
	models.KitchenStatusPending:      {models.KitchenStatusAcknowledged: true},
	models.KitchenStatusAcknowledged: {models.KitchenStatusCompleted: true},
}

func CanTransitionKOT(from, to string) error {
	if kotTransitions[from][to] {
		return nil
	}
	return utils.BadRequest(fmt.Sprintf("Invalid KOT transition: %s -> %s", from, to))
}

type KOTService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewKOTService(db *gorm.DB) *KOTService {
	return &KOTService{DB: db, Now: time.Now}
}

// GenerateKOTID derives a ticket id from the wall clock, second precision.
func GenerateKOTID(now time.Time) string {
	return "KOT-" + now.Format("20060102") + "-" + now.Format("150405")
}

type KOTInput struct {
	KOTType string
	Items   []models.KOTItem
	Reason  string
}

// Create stores a PENDING ticket for order. Amendments are linked to the
// earliest NEW_ORDER ticket of the same order when there is one. Two tickets
// created within the same second get a numeric suffix.
func (ks *KOTService) Create(ctx context.Context, order *models.Order, in KOTInput) (*models.KOT, error) {
	if !models.IsValidKOTType(in.KOTType) {
		return nil, utils.BadRequest("Invalid KOT type. Must be NEW_ORDER or ORDER_AMENDMENT")
	}
	db := ks.DB.WithContext(ctx)
	now := ks.Now()

	var parent *string
	if in.KOTType == models.KOTTypeAmendment {
		var first models.KOT
		err := db.Where("order_id = ? AND kot_type = ?", order.ID, models.KOTTypeNewOrder).
			Order("timestamp ASC, id ASC").Take(&first).Error
		switch {
		case err == nil:
			parent = &first.KOTID
		case !utils.IsNotFound(err):
			return nil, err
		}
	}

	items := make([]models.KOTItem, len(in.Items))
	for i, it := range in.Items {
		if it.KOTStatus == "" {
			it.KOTStatus = models.KOTItemPending
		}
		if it.Modifiers == nil {
			it.Modifiers = []models.SelectedModifier{}
		}
		items[i] = it
	}

	kot := &models.KOT{
		ParentKOTID:   parent,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		KOTType:       in.KOTType,
		TableName:     order.TableName,
		Items:         datatypes.NewJSONType(items),
		Timestamp:     now,
		KitchenStatus: models.KitchenStatusPending,
	}
	if in.Reason != "" {
		reason := in.Reason
		kot.AmendmentReason = &reason
	}

	base := GenerateKOTID(now)
	var err error
	for attempt := 1; attempt <= kotIDAttempts; attempt++ {
		kot.ID = 0
		kot.KOTID = base
		if attempt > 1 {
			kot.KOTID = fmt.Sprintf("%s-%d", base, attempt)
		}
		err = db.Create(kot).Error
		if err == nil || !utils.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"kotId":     kot.KOTID,
		"orderId":   order.ID,
		"kotType":   kot.KOTType,
		"itemCount": len(items),
	}).Info("KOT sent to kitchen")
	return kot, nil
}

func (ks *KOTService) ListByOrder(ctx context.Context, orderID uint) ([]models.KOT, error) {
	var kots []models.KOT
	err := ks.DB.WithContext(ctx).Where("order_id = ?", orderID).
		Order("timestamp ASC, id ASC").Find(&kots).Error
	return kots, err
}

func (ks *KOTService) find(ctx context.Context, kotID string) (*models.KOT, error) {
	var kot models.KOT
	if err := ks.DB.WithContext(ctx).Where("kot_id = ?", kotID).Take(&kot).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("KOT not found")
		}
		return nil, utils.Internal(err)
	}
	return &kot, nil
}

func (ks *KOTService) Acknowledge(ctx context.Context, kotID, by string) (*models.KOT, error) {
	kot, err := ks.find(ctx, kotID)
	if err != nil {
		return nil, err
	}
	if err := CanTransitionKOT(kot.KitchenStatus, models.KitchenStatusAcknowledged); err != nil {
		return nil, err
	}
	if by == "" {
		by = DefaultAcknowledger
	}
	now := ks.Now()
	kot.KitchenStatus = models.KitchenStatusAcknowledged
	kot.AcknowledgedBy = &by
	kot.AcknowledgedAt = &now
	if err := ks.DB.WithContext(ctx).Save(kot).Error; err != nil {
		return nil, utils.Internal(err)
	}
	return kot, nil
}

func (ks *KOTService) Complete(ctx context.Context, kotID string) (*models.KOT, error) {
	kot, err := ks.find(ctx, kotID)
	if err != nil {
		return nil, err
	}
	if err := CanTransitionKOT(kot.KitchenStatus, models.KitchenStatusCompleted); err != nil {
		return nil, err
	}
	now := ks.Now()
	kot.KitchenStatus = models.KitchenStatusCompleted
	kot.CompletedAt = &now
	if err := ks.DB.WithContext(ctx).Save(kot).Error; err != nil {
		return nil, utils.Internal(err)
	}
	return kot, nil
}
