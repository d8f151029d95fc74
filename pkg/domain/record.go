package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ComicStatus はコミックレコードのライフサイクルです。
// draft → generating → generated (または partial) → ordered の順に進みます。
type ComicStatus string

const (
	ComicStatusDraft      ComicStatus = "draft"
	ComicStatusGenerating ComicStatus = "generating"
	ComicStatusGenerated  ComicStatus = "generated"
	ComicStatusPartial    ComicStatus = "partial"
	ComicStatusOrdered    ComicStatus = "ordered"
)

// DefaultPlan は選択プランが空の場合に使うプラン名です。
const DefaultPlan = "Pro Comic"

// ComicRecord は永続化されるコミックの入力・生成物・状態です。
type ComicRecord struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"userId"`
	Title              string      `json:"title,omitempty"`
	Story              string      `json:"story"`
	Photos             []string    `json:"photos"`
	SelectedPlan       string      `json:"selectedPlan"`
	GeneratedComicData string      `json:"generatedComicData,omitempty"`
	Status             ComicStatus `json:"status"`
	LastError          string      `json:"lastError,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// GeneratedComic は generatedComicData をデコードして返します。未生成なら nil を返します。
func (r *ComicRecord) GeneratedComic() (*GeneratedComic, error) {
	if r.GeneratedComicData == "" {
		return nil, nil
	}
	var comic GeneratedComic
	if err := json.Unmarshal([]byte(r.GeneratedComicData), &comic); err != nil {
		return nil, fmt.Errorf("generatedComicData のデコードに失敗しました (comic: %s): %w", r.ID, err)
	}
	return &comic, nil
}

// EncodeGeneratedComic は GeneratedComic をレコード保存用の文字列にします。
func EncodeGeneratedComic(c *GeneratedComic) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("GeneratedComic のエンコードに失敗しました: %w", err)
	}
	return string(data), nil
}

// ComicUpdate はレコードの部分更新です。nil のフィールドは変更しません。
type ComicUpdate struct {
	Title              *string
	Photos             []string
	SelectedPlan       *string
	GeneratedComicData *string
	Status             *ComicStatus
	LastError          *string
}

// Apply は更新内容をレコードに反映し、UpdatedAt を進めます。
func (u ComicUpdate) Apply(r *ComicRecord, now time.Time) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Photos != nil {
		r.Photos = append([]string(nil), u.Photos...)
	}
	if u.SelectedPlan != nil {
		r.SelectedPlan = *u.SelectedPlan
	}
	if u.GeneratedComicData != nil {
		r.GeneratedComicData = *u.GeneratedComicData
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.LastError != nil {
		r.LastError = *u.LastError
	}
	r.UpdatedAt = now
}

// Fields はドキュメントストア向けに JSON キー名のマップへ変換します。
func (u ComicUpdate) Fields(now time.Time) map[string]any {
	fields := map[string]any{"updatedAt": now}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Photos != nil {
		fields["photos"] = u.Photos
	}
	if u.SelectedPlan != nil {
		fields["selectedPlan"] = *u.SelectedPlan
	}
	if u.GeneratedComicData != nil {
		fields["generatedComicData"] = *u.GeneratedComicData
	}
	if u.Status != nil {
		fields["status"] = string(*u.Status)
	}
	if u.LastError != nil {
		fields["lastError"] = *u.LastError
	}
	return fields
}

// PaymentStatus は注文の支払い状態です。決済処理そのものは行いません。
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// DeliveryLeadTime は注文から配送予定日までの期間です。
const DeliveryLeadTime = 7 * 24 * time.Hour

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

// Order は印刷注文の記録です。
type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	ComicID           string          `json:"comicId"`
	Plan              string          `json:"plan"`
	Amount            float64         `json:"amount"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	CreatedAt         time.Time       `json:"createdAt"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}
