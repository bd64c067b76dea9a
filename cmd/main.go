package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/labstack/echo/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/config"
	"github.com/k-negishi/form-submission-reviewer/internal/gateway"
	"github.com/k-negishi/form-submission-reviewer/internal/handler"
	"github.com/k-negishi/form-submission-reviewer/internal/usecase"
)

// newServer 設定から各ゲートウェイとユースケースを組み立て、echoサーバーを返す
func newServer(ctx context.Context, cfg *config.Config) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	creds := []byte(cfg.GoogleCredentials)

	sheets, err := gateway.NewGoogleSheetsRepository(ctx, creds, gateway.SheetsConfig{
		SpreadsheetID:        cfg.SpreadsheetID,
		SubmissionSheet:      cfg.SubmissionSheet,
		AuthorizedUsersSheet: cfg.AuthorizedUsersSheet,
		Timezone:             loc,
	})
	if err != nil {
		return nil, err
	}

	calendar, err := gateway.NewGoogleCalendarRepository(ctx, creds, cfg.CalendarID, loc)
	if err != nil {
		return nil, err
	}

	identity := gateway.NewGoogleIdentityProvider(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL)

	// ユースケースを初期化
	authorizer := usecase.NewAuthorizeUseCase(sheets, cfg.AllowListCacheTTL)
	lister := usecase.NewListSubmissionsUseCase(authorizer, sheets)
	publisher := usecase.NewPublishSubmissionUseCase(authorizer, sheets, calendar, loc)

	h := handler.New(handler.Deps{
		Identity:       identity,
		Sessions:       handler.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies()),
		Submissions:    lister,
		Publisher:      publisher,
		AllowList:      authorizer,
		Location:       loc,
		SpreadsheetURL: sheets.SpreadsheetURL(),
	})
	return handler.NewServer(h, cfg.SecureCookies())
}

func main() {
	ctx := context.Background()

	// 設定を読み込み
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("設定読み込みエラー: %v", err)
	}
	if cfg.Debug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	e, err := newServer(ctx, cfg)
	if err != nil {
		log.Fatalf("初期化エラー: %v", err)
	}

	// Lambda関数URLから呼ばれる場合
	if config.RunningOnLambda() {
		lambda.Start(handler.NewLambdaHandler(e))
		return
	}

	go func() {
		log.Printf("ポート %s で待ち受けます", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗しました: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("シャットダウンに失敗しました: %v", err)
	}
}
