package device

import (
	"math/rand"
	"sync"
	"time"
)

// SensorReading is one sample from the device's health sensors.
type SensorReading struct {
	Steps     int
	HeartRate int
	Timestamp time.Time
}

// SensorBridge mocks the platform health-sensor API. Readings follow a
// plausible random walk so dashboards have something to show without a
// real sensor stack behind them.
type SensorBridge struct {
	mu        sync.Mutex
	rng       *rand.Rand
	steps     int
	heartRate int
}

func NewSensorBridge(seed int64) *SensorBridge {
	return &SensorBridge{
		rng:       rand.New(rand.NewSource(seed)),
		heartRate: 70,
	}
}

func (b *SensorBridge) Sample() SensorReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps += b.rng.Intn(200)
	b.heartRate += b.rng.Intn(7) - 3
	if b.heartRate < 50 {
		b.heartRate = 50
	}
	if b.heartRate > 120 {
		b.heartRate = 120
	}
	return SensorReading{
		Steps:     b.steps,
		HeartRate: b.heartRate,
		Timestamp: time.Now(),
	}
}

// Reset zeroes the step counter, as the platform does at midnight.
func (b *SensorBridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = 0
}
