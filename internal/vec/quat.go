package vec

import "math"

// Quat кватернион поворота (x, y, z, w)
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// YawQuat строит кватернион поворота вокруг вертикальной оси на yaw градусов
func YawQuat(yawDegrees float64) Quat {
	half := yawDegrees * math.Pi / 180 / 2
	return Quat{Y: math.Sin(half), W: math.Cos(half)}
}
