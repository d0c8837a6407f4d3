// Команда coursectl: просмотр, проверка и генерация карт трассы,
// выпуск админских токенов и работа с сохранёнными чекпоинтами.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
