package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/SergeiKhy/portfolio/internal/service/mocks"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv набор моков и сервисов поверх общего in-memory хранилища
type testEnv struct {
	store     *mocks.Store
	linkRepo  *mocks.MockLinkRepository
	clickRepo *mocks.MockClickRepository
	eventRepo *mocks.MockEventRepository
	cacheRepo *mocks.MockCacheRepository
	links     service.LinkService
	logger    *zap.Logger
}

// setupTestEnv создаёт тестовое окружение с моковыми репозиториями
func setupTestEnv() *testEnv {
	store := mocks.NewStore()
	env := &testEnv{
		store:     store,
		linkRepo:  mocks.NewMockLinkRepository(store),
		clickRepo: mocks.NewMockClickRepository(store),
		eventRepo: mocks.NewMockEventRepository(store),
		cacheRepo: mocks.NewMockCacheRepository(),
		logger:    zap.NewNop(),
	}
	env.links = service.NewLinkService(
		env.linkRepo,
		env.clickRepo,
		env.eventRepo,
		env.cacheRepo,
		service.LinkServiceConfig{BaseURL: "https://example.dev"},
		env.logger,
	)
	return env
}

func (e *testEnv) createLink(t *testing.T, slug string) *models.Link {
	t.Helper()
	link, err := e.links.CreateLink(context.Background(), &models.CreateLinkInput{
		Slug:  slug,
		URL:   gofakeit.URL(),
		Title: gofakeit.Sentence(3),
	})
	require.NoError(t, err)
	return link
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// TestLinkService_CreateLink_Success проверяет успешное создание ссылки
func TestLinkService_CreateLink_Success(t *testing.T) {
	env := setupTestEnv()

	input := &models.CreateLinkInput{
		Slug:        "linkedin",
		URL:         "https://linkedin.com/in/me",
		Title:       "LinkedIn",
		Description: strPtr("Профиль <script>alert(1)</script><b>тут</b>"),
	}

	link, err := env.links.CreateLink(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, link.ID)
	assert.Equal(t, "linkedin", link.Slug)
	assert.True(t, link.Enabled, "ссылка по умолчанию включена")
	assert.Equal(t, int64(0), link.Clicks)
	require.NotNil(t, link.Description)
	assert.NotContains(t, *link.Description, "<script>")
	assert.Contains(t, *link.Description, "<b>тут</b>")
}

// TestLinkService_CreateLink_Disabled проверяет создание выключенной ссылки
func TestLinkService_CreateLink_Disabled(t *testing.T) {
	env := setupTestEnv()

	link, err := env.links.CreateLink(context.Background(), &models.CreateLinkInput{
		Slug:    "draft",
		URL:     "https://example.com",
		Title:   "Draft",
		Enabled: boolPtr(false),
	})

	require.NoError(t, err)
	assert.False(t, link.Enabled)
}

// TestLinkService_CreateLink_DuplicateSlug проверяет конфликт slug
func TestLinkService_CreateLink_DuplicateSlug(t *testing.T) {
	env := setupTestEnv()
	env.createLink(t, "github")

	_, err := env.links.CreateLink(context.Background(), &models.CreateLinkInput{
		Slug:  "github",
		URL:   "https://github.com/other",
		Title: "Other",
	})

	assert.ErrorIs(t, err, service.ErrSlugConflict)

	links, err := env.links.ListLinks(context.Background())
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

// TestLinkService_CreateLink_Validation проверяет отклонение невалидного ввода
func TestLinkService_CreateLink_Validation(t *testing.T) {
	env := setupTestEnv()

	tests := []struct {
		name  string
		input models.CreateLinkInput
		field string
	}{
		{"пустой slug", models.CreateLinkInput{Slug: "", URL: "https://a.dev", Title: "A"}, "slug"},
		{"slug с пробелом", models.CreateLinkInput{Slug: "my link", URL: "https://a.dev", Title: "A"}, "slug"},
		{"slug со слэшем", models.CreateLinkInput{Slug: "a/b", URL: "https://a.dev", Title: "A"}, "slug"},
		{"невалидный URL", models.CreateLinkInput{Slug: "ok", URL: "not a url", Title: "A"}, "url"},
		{"не http схема", models.CreateLinkInput{Slug: "ok", URL: "ftp://files.dev/x", Title: "A"}, "url"},
		{"пустой title", models.CreateLinkInput{Slug: "ok", URL: "https://a.dev", Title: "  "}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := env.links.CreateLink(context.Background(), &input)

			var ve *service.ValidationError
			require.True(t, errors.As(err, &ve), "ожидалась ошибка валидации, получено %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// TestLinkService_UpdateLink_Partial проверяет частичное обновление
func TestLinkService_UpdateLink_Partial(t *testing.T) {
	env := setupTestEnv()
	link := env.createLink(t, "cv")

	updated, err := env.links.UpdateLink(context.Background(), link.ID, &models.UpdateLinkInput{
		Enabled: boolPtr(false),
		Notes:   strPtr("выключено до весны"),
	})

	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, link.Slug, updated.Slug)
	assert.Equal(t, link.URL, updated.URL)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "выключено до весны", *updated.Notes)
}

// TestLinkService_UpdateLink_SlugConflict проверяет, что конфликт учитывает только чужие ссылки
func TestLinkService_UpdateLink_SlugConflict(t *testing.T) {
	env := setupTestEnv()
	first := env.createLink(t, "first")
	env.createLink(t, "second")

	_, err := env.links.UpdateLink(context.Background(), first.ID, &models.UpdateLinkInput{Slug: strPtr("second")})
	assert.ErrorIs(t, err, service.ErrSlugConflict)

	// собственный slug не конфликтует
	updated, err := env.links.UpdateLink(context.Background(), first.ID, &models.UpdateLinkInput{
		Slug:  strPtr("first"),
		Title: strPtr("Новый заголовок"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Новый заголовок", updated.Title)
}

// TestLinkService_UpdateLink_NotFound проверяет обновление несуществующей ссылки
func TestLinkService_UpdateLink_NotFound(t *testing.T) {
	env := setupTestEnv()

	_, err := env.links.UpdateLink(context.Background(), gofakeit.UUID(), &models.UpdateLinkInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrLinkNotFound)

	_, err = env.links.UpdateLink(context.Background(), "not-a-uuid", &models.UpdateLinkInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
}

// TestLinkService_UpdateLink_Empty проверяет отклонение пустого обновления
func TestLinkService_UpdateLink_Empty(t *testing.T) {
	env := setupTestEnv()
	link := env.createLink(t, "empty")

	_, err := env.links.UpdateLink(context.Background(), link.ID, &models.UpdateLinkInput{})
	assert.True(t, service.IsValidation(err))
}

// TestLinkService_UpdateLink_InvalidatesCache проверяет сброс кэша старого slug
func TestLinkService_UpdateLink_InvalidatesCache(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	link := env.createLink(t, "old")

	_, err := env.links.ResolveSlug(ctx, "old")
	require.NoError(t, err)
	require.True(t, env.cacheRepo.Has("old"))

	_, err = env.links.UpdateLink(ctx, link.ID, &models.UpdateLinkInput{Slug: strPtr("new")})
	require.NoError(t, err)

	assert.False(t, env.cacheRepo.Has("old"))
	_, err = env.links.ResolveSlug(ctx, "old")
	assert.ErrorIs(t, err, service.ErrLinkNotFound)

	resolved, err := env.links.ResolveSlug(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, link.ID, resolved.ID)
}

// TestLinkService_ResolveSlug_CacheUnavailable проверяет работу без Redis
func TestLinkService_ResolveSlug_CacheUnavailable(t *testing.T) {
	env := setupTestEnv()
	link := env.createLink(t, "resilient")
	env.cacheRepo.Err = errors.New("redis: connection refused")

	resolved, err := env.links.ResolveSlug(context.Background(), "resilient")

	require.NoError(t, err)
	assert.Equal(t, link.ID, resolved.ID)
}

// TestLinkService_DeleteLink_Cascade проверяет каскадное удаление кликов
// и сохранение событий без ссылки на клик
func TestLinkService_DeleteLink_Cascade(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	link := env.createLink(t, "gone")

	click := &models.Click{ID: gofakeit.UUID(), LinkID: link.ID, SessionID: "tok-1"}
	require.NoError(t, env.clickRepo.RecordClick(ctx, click))
	require.NoError(t, env.eventRepo.Create(ctx, &models.Event{ID: gofakeit.UUID(), Event: "page_view", LinkClickID: &click.ID}))

	require.NoError(t, env.links.DeleteLink(ctx, link.ID))

	_, err := env.links.GetLink(ctx, link.ID)
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
	assert.Empty(t, env.clickRepo.Clicks(link.ID))

	events := env.eventRepo.Events()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].LinkClickID)

	_, err = env.links.ResolveSlug(ctx, "gone")
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
}

// TestLinkService_DeleteLink_NotFound проверяет удаление несуществующей ссылки
func TestLinkService_DeleteLink_NotFound(t *testing.T) {
	env := setupTestEnv()

	err := env.links.DeleteLink(context.Background(), gofakeit.UUID())
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
}

// TestLinkService_GetLink_WithJourneys проверяет детали ссылки с путями кликов
func TestLinkService_GetLink_WithJourneys(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	link := env.createLink(t, "details")

	first := &models.Click{ID: gofakeit.UUID(), LinkID: link.ID, SessionID: "tok-a"}
	second := &models.Click{ID: gofakeit.UUID(), LinkID: link.ID, SessionID: "tok-b"}
	require.NoError(t, env.clickRepo.RecordClick(ctx, first))
	require.NoError(t, env.clickRepo.RecordClick(ctx, second))
	require.NoError(t, env.eventRepo.Create(ctx, &models.Event{ID: gofakeit.UUID(), Event: "page_view", LinkClickID: &first.ID}))

	details, err := env.links.GetLink(ctx, link.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(2), details.Clicks)
	assert.Equal(t, int64(2), details.ClickEventsCount)
	require.Len(t, details.RecentClicks, 2)
	// новые клики первыми
	assert.Equal(t, second.ID, details.RecentClicks[0].ID)
	assert.Empty(t, details.RecentClicks[0].Events)
	assert.Len(t, details.RecentClicks[1].Events, 1)
}

// TestLinkService_Leaderboard проверяет сортировку рейтинга по кликам
func TestLinkService_Leaderboard(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	quiet := env.createLink(t, "quiet")
	popular := env.createLink(t, "popular")

	for i := 0; i < 3; i++ {
		require.NoError(t, env.clickRepo.RecordClick(ctx, &models.Click{
			ID: gofakeit.UUID(), LinkID: popular.ID, SessionID: gofakeit.UUID(),
		}))
	}
	require.NoError(t, env.clickRepo.RecordClick(ctx, &models.Click{
		ID: gofakeit.UUID(), LinkID: quiet.ID, SessionID: gofakeit.UUID(),
	}))

	stats, err := env.links.Leaderboard(ctx)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "popular", stats[0].Slug)
	assert.Equal(t, int64(3), stats[0].Clicks)
	assert.Equal(t, "quiet", stats[1].Slug)
}

// TestLinkService_QRCode проверяет генерацию PNG
func TestLinkService_QRCode(t *testing.T) {
	env := setupTestEnv()
	link := env.createLink(t, "qr")

	png, err := env.links.QRCode(context.Background(), link.ID, 0)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = env.links.QRCode(context.Background(), link.ID, 50)
	assert.True(t, service.IsValidation(err))
}
