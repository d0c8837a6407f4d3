package progression

import "github.com/annel0/parkour-course/internal/vec"

// Action действие, которое хост должен выполнить после перехода
type Action interface {
	action()
}

// Teleport переносит игрока в точку, обнуляет скорость и, если задан, поворачивает
type Teleport struct {
	Position vec.Vec3Float
	Yaw      float64
	HasYaw   bool
}

// ApplyImpulse мгновенный импульс (конвейер)
type ApplyImpulse struct {
	Impulse vec.Vec3Float
}

// Persist запись позиции чекпоинта в хранилище (без ожидания)
type Persist struct {
	Position vec.Vec3Float
}

// Notify текстовое сообщение игроку
type Notify struct {
	Kind  NoticeKind
	Text  string
	Color string
}

// ProgressUpdate структурированный UI-пакет прогресса
type ProgressUpdate struct {
	Stage      int     `json:"stage"`
	Percentage float64 `json:"percentage"`
}

func (Teleport) action()       {}
func (ApplyImpulse) action()   {}
func (Persist) action()        {}
func (Notify) action()         {}
func (ProgressUpdate) action() {}

// NoticeKind вид сообщения
type NoticeKind string

const (
	NoticeWelcome      NoticeKind = "welcome"
	NoticeRestored     NoticeKind = "restored"
	NoticeSaved        NoticeKind = "checkpoint_saved"
	NoticeHazard       NoticeKind = "respawn_hazard"
	NoticeFall         NoticeKind = "respawn_fall"
	NoticeReset        NoticeKind = "respawn_reset"
	NoticeCannotGoBack NoticeKind = "cannot_go_back"
	NoticeOutOfOrder   NoticeKind = "out_of_order"
)

// Цвета сообщений (hex без #)
const (
	ColorInfo    = "FFFFFF"
	ColorSuccess = "00FF00"
	ColorRespawn = "FFA500"
	ColorWarning = "FF0000"
)
