package app

import (
	"fmt"
	"strconv"
	"strings"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションの定期削除を行うワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

var commands = []Command{CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空の場合はCommandServeを返す。未知のサブコマンドはエラーにする。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	for _, c := range commands {
		if args[0] == string(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q\n%s", args[0], Usage())
}

// Usage はサブコマンドの一覧を返す。
func Usage() string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = string(c)
	}
	return "usage: folio [" + strings.Join(names, "|") + "]"
}

// MigrateAction はmigrateサブコマンドの動作を表す。
type MigrateAction struct {
	Name  string // "up" | "down" | "version"
	Steps int    // downのときのみ使用
}

// ParseMigrateAction はmigrateに続く引数を解析する。
// 引数なしはup、downの件数省略時は1件とする。
func ParseMigrateAction(args []string) (MigrateAction, error) {
	if len(args) == 0 {
		return MigrateAction{Name: "up"}, nil
	}

	switch args[0] {
	case "up", "version":
		return MigrateAction{Name: args[0]}, nil
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return MigrateAction{}, fmt.Errorf("invalid rollback steps %q", args[1])
			}
			steps = n
		}
		return MigrateAction{Name: "down", Steps: steps}, nil
	default:
		return MigrateAction{}, fmt.Errorf("unknown migrate action %q (want up, down [N] or version)", args[0])
	}
}
