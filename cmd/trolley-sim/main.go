package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type positionPayload struct {
	TrolleyID      string    `json:"trolley_id"`
	Timestamp      time.Time `json:"timestamp"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	BatteryLevel   *int      `json:"battery_level"`
	SignalStrength *int      `json:"signal_strength"`
}

const metersPerDegree = 111000.0

func main() {
	brokerAddr := flag.String("broker", "tcp://localhost:1883", "MQTT broker address, e.g. tcp://localhost:1883")
	trolleyID := flag.String("trolley-id", "sim-trolley-1", "Trolley hardware identifier")
	anchorLat := flag.Float64("store-lat", -26.2041, "Store anchor latitude")
	anchorLon := flag.Float64("store-lon", 28.0473, "Store anchor longitude")
	radius := flag.Float64("radius", 500, "Geofence radius in meters")
	step := flag.Float64("step", 50, "Maximum movement per tick in meters")
	interval := flag.Duration("interval", 5*time.Second, "Interval between published positions")
	breachPct := flag.Float64("breach-pct", 0, "Probability in percent that a tick jumps outside the geofence")
	battery := flag.Int("battery", 100, "Starting battery percentage")
	drainEvery := flag.Int("drain-every", 20, "Ticks between battery percentage drops, 0 disables drain")
	seed := flag.Int64("seed", 0, "Random seed, 0 uses the current time")

	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	clientID := fmt.Sprintf("%s-simulator-%d", *trolleyID, time.Now().UnixNano())
	opts := mqtt.NewClientOptions().AddBroker(*brokerAddr).SetClientID(clientID)
	opts = opts.SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to broker: %v", token.Error())
	}
	log.Printf("connected to MQTT broker %s as %s", *brokerAddr, clientID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lat, lon := *anchorLat, *anchorLon
	level := *battery
	topic := fmt.Sprintf("trolleys/%s/position", *trolleyID)
	ticks := 0

	publish := func() {
		ticks++
		if *drainEvery > 0 && ticks%*drainEvery == 0 && level > 0 {
			level--
		}

		if rng.Float64()*100 < *breachPct {
			// Jump well past the fence in a random direction.
			angle := rng.Float64() * 2 * math.Pi
			dist := *radius * 1.5
			lat = *anchorLat + dist*math.Cos(angle)/metersPerDegree
			lon = *anchorLon + dist*math.Sin(angle)/(metersPerDegree*math.Cos(*anchorLat*math.Pi/180))
		} else {
			lat += (rng.Float64()*2 - 1) * *step / metersPerDegree
			lon += (rng.Float64()*2 - 1) * *step / (metersPerDegree * math.Cos(lat*math.Pi/180))
		}

		rssi := -50 - rng.Intn(40)
		payload := positionPayload{
			TrolleyID:      *trolleyID,
			Timestamp:      time.Now().UTC(),
			Lat:            lat,
			Lon:            lon,
			BatteryLevel:   &level,
			SignalStrength: &rssi,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("failed to encode payload: %v", err)
			return
		}

		token := client.Publish(topic, 1, false, data)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("publish error: %v", err)
			return
		}
		log.Printf("published %s lat=%.6f lon=%.6f battery=%d", topic, lat, lon, level)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	publish()

	for {
		select {
		case <-ctx.Done():
			log.Print("received shutdown signal, disconnecting")
			client.Disconnect(250)
			return
		case <-ticker.C:
			publish()
		}
	}
}
