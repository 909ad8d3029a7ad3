package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ymorita/kabuscan/cmd/kabuscan/commands"
	"github.com/ymorita/kabuscan/internal/ranking"
)

// main is the entry point for the kabuscan CLI
// ⭐ 統合CLIエントリポイント: go run ./cmd/kabuscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		printFriendly(err)
		os.Exit(1)
	}
}

// printFriendly maps known failure types to short operator-facing
// messages instead of dumping error chains.
func printFriendly(err error) {
	var vErr *ranking.ValidationError
	var nErr *ranking.NetworkError
	var pErr *ranking.ParseError

	switch {
	case errors.As(err, &vErr):
		fmt.Fprintf(os.Stderr, "入力エラー: %v\n", vErr)
	case errors.As(err, &nErr):
		fmt.Fprintf(os.Stderr, "通信エラー: %v\nネットワーク接続と対象サイトの状態を確認してください。\n", nErr)
	case errors.As(err, &pErr):
		fmt.Fprintf(os.Stderr, "解析エラー: %v\nページ構成が変わった可能性があります。\n", pErr)
	default:
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
	}
}
