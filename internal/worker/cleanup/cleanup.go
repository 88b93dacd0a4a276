// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 期限切れセッションは認証時に無視されるため、削除は行数の抑制が目的となる。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPurger は期限切れセッションを削除する永続化層のインターフェース。
// repository.SessionRepository が実装する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// PurgeRecorder は削除件数を記録するメトリクスのインターフェース。
type PurgeRecorder interface {
	RecordSessionsPurged(n int64)
}

// SessionCleanupJob は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がなくてもエラーにならない。
type SessionCleanupJob struct {
	sessions SessionPurger
	recorder PurgeRecorder
	logger   *slog.Logger
}

// NewSessionCleanupJob はSessionCleanupJobを生成する。recorderはnilでもよい。
func NewSessionCleanupJob(sessions SessionPurger, recorder PurgeRecorder, logger *slog.Logger) *SessionCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCleanupJob{
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsPurged(deleted)
	}

	j.logger.Info("セッションクリーンアップが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、以降intervalごとにRunを実行する。
// コンテキストがキャンセルされるまで戻らない。失敗はログに残して次の周期を待つ。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップを開始しました",
		slog.Duration("interval", interval),
	)

	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
