//go:build !unix

package main

import (
	"os"
	"sync"
)

// 非 unix 平台只在进程内串行化
var setupMu sync.Mutex

func lockSetupDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	setupMu.Lock()
	return setupMu.Unlock, nil
}
