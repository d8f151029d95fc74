package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/pipeline"
	"github.com/shouni/go-comico-kit/pkg/storage"
	"github.com/shouni/go-comico-kit/pkg/store"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput はリクエストの内容が不正な場合のエラーです。
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotGenerated はコミックがまだ生成されていない場合のエラーです。
	ErrNotGenerated = errors.New("comic has not been generated yet")
)

// ComicGenerator はコミックを生成するパイプラインです。
type ComicGenerator interface {
	Generate(ctx context.Context, req pipeline.Request) (*domain.GeneratedComic, domain.Outcome, error)
	PanelRegenerator
}

// DraftInput は下書き作成の入力です。
type DraftInput struct {
	UserID       string
	Story        string
	Photos       []domain.PhotoInput
	SelectedPlan string
}

// GenerateOptions は生成時の指定です。
type GenerateOptions struct {
	Panels int
	Style  string
}

// OrderInput は印刷注文の入力です。
type OrderInput struct {
	UserID          string
	ComicID         string
	Plan            string
	Amount          float64
	ShippingAddress domain.ShippingAddress
}

// ComicService はコミックレコードのライフサイクルを管理します。
// draft → generating → generated (または partial) → ordered の順に状態を進めます。
type ComicService struct {
	store     store.ComicStore
	generator ComicGenerator
	preparer  pipeline.PhotoPreparer
	uploader  storage.Uploader
	now       func() time.Time
	newID     func() string
}

// NewComicService は ComicService を初期化します。preparer と uploader は省略できます。
func NewComicService(s store.ComicStore, g ComicGenerator, preparer pipeline.PhotoPreparer, uploader storage.Uploader) (*ComicService, error) {
	if s == nil {
		return nil, fmt.Errorf("ComicStore は必須です")
	}
	if g == nil {
		return nil, fmt.Errorf("ComicGenerator は必須です")
	}
	return &ComicService{
		store:     s,
		generator: g,
		preparer:  preparer,
		uploader:  uploader,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// CreateDraft は写真を保存し、draft 状態のレコードを作成します。
func (s *ComicService) CreateDraft(ctx context.Context, in DraftInput) (*domain.ComicRecord, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Story) == "" {
		return nil, fmt.Errorf("%w: story is required", ErrInvalidInput)
	}

	id := s.newID()
	photos := in.Photos
	if s.preparer != nil && len(photos) > 0 {
		prepared, err := s.preparer.Resolve(ctx, in.UserID, id, photos)
		if err != nil {
			return nil, err
		}
		photos = prepared
	}

	refs := make([]string, 0, len(photos))
	for _, p := range photos {
		if ref := p.Ref(); ref != "" {
			refs = append(refs, ref)
		}
	}

	plan := strings.TrimSpace(in.SelectedPlan)
	if plan == "" {
		plan = domain.DefaultPlan
	}

	now := s.now()
	rec := &domain.ComicRecord{
		ID:           id,
		UserID:       in.UserID,
		Story:        in.Story,
		Photos:       refs,
		SelectedPlan: plan,
		Status:       domain.ComicStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateComic(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create comic: %w", err)
	}

	slog.InfoContext(ctx, "Comic draft created", "comic_id", id, "user_id", in.UserID, "photos", len(refs))
	return rec, nil
}

// Generate はレコードの物語と写真からコミックを生成して保存します。
// 物語生成に失敗した場合は draft に戻し、利用者向けのメッセージを lastError に記録します。
func (s *ComicService) Generate(ctx context.Context, comicID string, opts GenerateOptions) (*domain.GeneratedComic, domain.Outcome, error) {
	rec, err := s.store.GetComic(ctx, comicID)
	if err != nil {
		return nil, domain.OutcomeFailed, err
	}
	logger := slog.With("comic_id", comicID, "user_id", rec.UserID)

	if err := s.setStatus(ctx, comicID, domain.ComicStatusGenerating, ""); err != nil {
		return nil, domain.OutcomeFailed, err
	}

	photos := make([]domain.PhotoInput, 0, len(rec.Photos))
	for i, ref := range rec.Photos {
		p, err := domain.ParsePhotoRef(ref)
		if err != nil {
			logger.WarnContext(ctx, "Skipping stored photo reference", "photo_index", i+1, "error", err)
			continue
		}
		photos = append(photos, p)
	}

	comic, outcome, err := s.generator.Generate(ctx, pipeline.Request{
		StoryText:       rec.Story,
		Photos:          photos,
		RequestedPanels: opts.Panels,
		Style:           opts.Style,
		UserID:          rec.UserID,
		ComicID:         comicID,
		PhotosResolved:  true,
	})
	if err != nil {
		if setErr := s.setStatus(ctx, comicID, domain.ComicStatusDraft, ai.UserMessage(err)); setErr != nil {
			logger.ErrorContext(ctx, "Failed to reset comic status", "error", setErr)
		}
		return nil, outcome, err
	}

	if err := s.saveComic(ctx, comicID, comic, outcome); err != nil {
		return nil, outcome, err
	}
	return comic, outcome, nil
}

// Get はレコードを返します。
func (s *ComicService) Get(ctx context.Context, comicID string) (*domain.ComicRecord, error) {
	return s.store.GetComic(ctx, comicID)
}

// ListByUser はユーザーのコミックを新しい順に返します。
func (s *ComicService) ListByUser(ctx context.Context, userID string) ([]*domain.ComicRecord, error) {
	return s.store.ListComics(ctx, userID)
}

// Delete はレコードと保存済みの写真を削除します。写真の削除の失敗はログに残して続行します。
func (s *ComicService) Delete(ctx context.Context, comicID string) error {
	rec, err := s.store.GetComic(ctx, comicID)
	if err != nil {
		return err
	}

	if s.uploader != nil {
		for _, ref := range rec.Photos {
			if strings.HasPrefix(ref, "data:") {
				continue
			}
			if err := s.uploader.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrNotManaged) {
				slog.WarnContext(ctx, "Failed to delete stored photo", "comic_id", comicID, "url", ref, "error", err)
			}
		}
	}

	if err := s.store.DeleteComic(ctx, comicID); err != nil {
		return fmt.Errorf("failed to delete comic: %w", err)
	}
	slog.InfoContext(ctx, "Comic deleted", "comic_id", comicID)
	return nil
}

// RegeneratePanel は1枚のパネルを作り直し、差し替えた新しい GeneratedComic で置き換えます。
// style が空の場合は生成時の画風を使います。失敗した場合はレコードを変更しません。
func (s *ComicService) RegeneratePanel(ctx context.Context, comicID string, panelNumber int, description, style string) (*domain.GeneratedComic, error) {
	rec, err := s.store.GetComic(ctx, comicID)
	if err != nil {
		return nil, err
	}
	current, err := rec.GeneratedComic()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("comic %s: %w", comicID, ErrNotGenerated)
	}
	if panelNumber < 1 || panelNumber > len(current.Panels) {
		return nil, fmt.Errorf("%w: panel %d is out of range (1-%d)", ErrInvalidInput, panelNumber, len(current.Panels))
	}
	if style == "" {
		style = current.Style
	}

	panel, err := s.generator.RegeneratePanel(ctx, panelNumber, description, style)
	if err != nil {
		return nil, err
	}

	next, err := current.WithPanel(panel, s.now())
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.ComicStatusOrdered {
		err = s.saveComicData(ctx, comicID, next, nil)
	} else {
		err = s.saveComic(ctx, comicID, next, next.Outcome())
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

// PlaceOrder は注文を記録し、コミックを ordered にします。決済処理は行いません。
func (s *ComicService) PlaceOrder(ctx context.Context, in OrderInput) (*domain.Order, error) {
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.ComicID) == "" {
		return nil, fmt.Errorf("%w: userId and comicId are required", ErrInvalidInput)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	rec, err := s.store.GetComic(ctx, in.ComicID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != in.UserID {
		return nil, fmt.Errorf("%w: comic %s does not belong to user %s", ErrInvalidInput, in.ComicID, in.UserID)
	}

	plan := strings.TrimSpace(in.Plan)
	if plan == "" {
		plan = rec.SelectedPlan
	}

	now := s.now()
	order := &domain.Order{
		ID:                s.newID(),
		UserID:            in.UserID,
		ComicID:           in.ComicID,
		Plan:              plan,
		Amount:            in.Amount,
		ShippingAddress:   in.ShippingAddress,
		PaymentStatus:     domain.PaymentStatusCompleted,
		CreatedAt:         now,
		EstimatedDelivery: now.Add(domain.DeliveryLeadTime),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if err := s.setStatus(ctx, in.ComicID, domain.ComicStatusOrdered, ""); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Order placed", "order_id", order.ID, "comic_id", in.ComicID, "plan", plan)
	return order, nil
}

// GetOrder は注文を返します。
func (s *ComicService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// ListOrders はユーザーの注文を新しい順に返します。
func (s *ComicService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.store.ListOrders(ctx, userID)
}

func (s *ComicService) setStatus(ctx context.Context, comicID string, status domain.ComicStatus, lastError string) error {
	if err := s.store.UpdateComic(ctx, comicID, domain.ComicUpdate{Status: &status, LastError: &lastError}); err != nil {
		return fmt.Errorf("failed to update comic status: %w", err)
	}
	return nil
}

// saveComic は生成結果を保存し、全パネル成功なら generated、それ以外は partial にします。
func (s *ComicService) saveComic(ctx context.Context, comicID string, comic *domain.GeneratedComic, outcome domain.Outcome) error {
	status := domain.ComicStatusGenerated
	if outcome != domain.OutcomeSuccess {
		status = domain.ComicStatusPartial
	}
	return s.saveComicData(ctx, comicID, comic, &status)
}

func (s *ComicService) saveComicData(ctx context.Context, comicID string, comic *domain.GeneratedComic, status *domain.ComicStatus) error {
	data, err := domain.EncodeGeneratedComic(comic)
	if err != nil {
		return err
	}
	lastError := ""
	if n := comic.FailedPanels(); n > 0 {
		lastError = fmt.Sprintf("%d of %d panels failed to generate", n, len(comic.Panels))
	}

	update := domain.ComicUpdate{
		Title:              &comic.Title,
		GeneratedComicData: &data,
		Status:             status,
		LastError:          &lastError,
	}
	if err := s.store.UpdateComic(ctx, comicID, update); err != nil {
		return fmt.Errorf("failed to save generated comic: %w", err)
	}
	return nil
}
