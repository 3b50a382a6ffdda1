package dao

import (
	"context"

	"gorm.io/gorm"

	billingmodel "bill-gateway-api/internal/model/billing"
)

// AuditDao 账单请求/响应审计，只追加不修改
type AuditDao struct {
	db *gorm.DB
}

func NewAuditDao(db *gorm.DB) *AuditDao {
	return &AuditDao{db: db}
}

// AutoMigrate 建表
func (d *AuditDao) AutoMigrate() error {
	return d.db.AutoMigrate(
		&billingmodel.FetchBillRequest{},
		&billingmodel.FetchBillResponse{},
		&billingmodel.PayBillRequest{},
		&billingmodel.PayBillResponse{},
	)
}

func (d *AuditDao) CreateFetchBillRequest(ctx context.Context, m *billingmodel.FetchBillRequest) error {
	return d.db.WithContext(ctx).Create(m).Error
}

func (d *AuditDao) CreateFetchBillResponse(ctx context.Context, m *billingmodel.FetchBillResponse) error {
	return d.db.WithContext(ctx).Create(m).Error
}

func (d *AuditDao) CreatePayBillRequest(ctx context.Context, m *billingmodel.PayBillRequest) error {
	return d.db.WithContext(ctx).Create(m).Error
}

func (d *AuditDao) CreatePayBillResponse(ctx context.Context, m *billingmodel.PayBillResponse) error {
	return d.db.WithContext(ctx).Create(m).Error
}

// ListFetchBillRequests 按 ref_id 查询，按创建时间升序
func (d *AuditDao) ListFetchBillRequests(ctx context.Context, refID string) ([]billingmodel.FetchBillRequest, error) {
	var list []billingmodel.FetchBillRequest
	err := d.db.WithContext(ctx).Where("ref_id = ?", refID).Order("created_at asc, id asc").Find(&list).Error
	return list, err
}

// ListFetchBillResponses 查询 ref_id 对应请求下的全部响应
func (d *AuditDao) ListFetchBillResponses(ctx context.Context, refID string) ([]billingmodel.FetchBillResponse, error) {
	var list []billingmodel.FetchBillResponse
	sub := d.db.Model(&billingmodel.FetchBillRequest{}).Select("id").Where("ref_id = ?", refID)
	err := d.db.WithContext(ctx).
		Where("fetch_bill_request_id IN (?)", sub).
		Order("created_at asc, id asc").
		Find(&list).Error
	return list, err
}

func (d *AuditDao) ListPayBillRequests(ctx context.Context, refID string) ([]billingmodel.PayBillRequest, error) {
	var list []billingmodel.PayBillRequest
	err := d.db.WithContext(ctx).Where("ref_id = ?", refID).Order("created_at asc, id asc").Find(&list).Error
	return list, err
}

func (d *AuditDao) ListPayBillResponses(ctx context.Context, refID string) ([]billingmodel.PayBillResponse, error) {
	var list []billingmodel.PayBillResponse
	sub := d.db.Model(&billingmodel.PayBillRequest{}).Select("id").Where("ref_id = ?", refID)
	err := d.db.WithContext(ctx).
		Where("pay_bill_request_id IN (?)", sub).
		Order("created_at asc, id asc").
		Find(&list).Error
	return list, err
}
