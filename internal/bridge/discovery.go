package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/go-infinitude/infinitude/infinitude"
)

type sensorConfiguration struct {
	UniqueID          string `json:"unique_id"`
	Name              string `json:"name"`
	DeviceClass       string `json:"device_class,omitempty"`
	StateTopic        string `json:"state_topic"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
}

// PublishDiscovery announces one climate entity per zone plus the system
// sensors on the Home Assistant discovery prefix. Configs are retained so
// entities survive Home Assistant restarts.
func (b *Bridge) PublishDiscovery() {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit := "F"
	if b.Client.System != nil {
		if u, ok := b.Client.System.TemperatureUnit(); ok {
			unit = string(u)
		}
	}

	for _, id := range b.Client.ZoneIDs() {
		zone := b.Client.Zones[id]
		name := fmt.Sprintf("zone%s", id)
		if n, ok := zone.Name(); ok && n != "" {
			name = n
		}
		uniqueID := fmt.Sprintf("infinitude_zone%s", id)

		config := map[string]interface{}{
			"name":                      name,
			"unique_id":                 uniqueID,
			"temperature_unit":          unit,
			"temp_step":                 1.0,
			"current_temperature_topic": b.zoneTopic(id, "currentTemp"),
			"temperature_state_topic":   b.zoneTopic(id, "targetTemp"),
			"temperature_command_topic": b.zoneTopic(id, "targetTemp/set"),
			"modes": []string{
				string(infinitude.HVACAuto), string(infinitude.HVACHeat),
				string(infinitude.HVACCool), string(infinitude.HVACOff),
				string(infinitude.HVACFanOnly),
			},
			"mode_state_topic":   b.sysTopic("mode"),
			"mode_command_topic": b.sysTopic("mode/set"),
			"fan_modes": []string{
				string(infinitude.FanAuto), string(infinitude.FanLow),
				string(infinitude.FanMedium), string(infinitude.FanHigh),
			},
			"fan_mode_state_topic":   b.zoneTopic(id, "fanMode"),
			"fan_mode_command_topic": b.zoneTopic(id, "fanMode/set"),
			"action_topic":           b.zoneTopic(id, "action"),
			"preset_modes": []string{
				string(infinitude.ActivityHome), string(infinitude.ActivityAway),
				string(infinitude.ActivitySleep), string(infinitude.ActivityWake),
				string(infinitude.ActivityManual),
			},
			"preset_mode_state_topic":   b.zoneTopic(id, "activity"),
			"preset_mode_command_topic": b.zoneTopic(id, "activity/set"),
		}

		payload, _ := json.Marshal(config)
		// <discovery_prefix>/<component>/<node_id>/<object_id>/config
		b.Publish(fmt.Sprintf("%s/climate/infinitude/zone%s/config", b.DiscoveryPrefix, id), 0, true, string(payload))
		log.Info().Str("zone", id).Str("name", name).Msg("Published climate discovery config")

		b.publishSensorDiscovery(sensorConfiguration{
			UniqueID:          uniqueID + "_humidity",
			Name:              name + " Humidity",
			DeviceClass:       "humidity",
			StateTopic:        b.zoneTopic(id, "humidity"),
			UnitOfMeasurement: "%",
		})
	}

	tempUnit := "°F"
	if unit == "C" {
		tempUnit = "°C"
	}
	b.publishSensorDiscovery(sensorConfiguration{
		UniqueID:          "infinitude_outside_temperature",
		Name:              "Outside Temperature",
		DeviceClass:       "temperature",
		StateTopic:        b.sysTopic("outsideTemp"),
		UnitOfMeasurement: tempUnit,
	})
	b.publishSensorDiscovery(sensorConfiguration{
		UniqueID:          "infinitude_filter_level",
		Name:              "Filter Level",
		StateTopic:        b.sysTopic("filterLevel"),
		UnitOfMeasurement: "%",
	})
	b.publishSensorDiscovery(sensorConfiguration{
		UniqueID:   "infinitude_airflow_cfm",
		Name:       "Airflow",
		StateTopic: b.sysTopic("airflowCfm"),
	})
}

func (b *Bridge) publishSensorDiscovery(config sensorConfiguration) {
	payload, _ := json.Marshal(config)
	topic := fmt.Sprintf("%s/sensor/infinitude/%s/config", b.DiscoveryPrefix, config.UniqueID)
	b.Publish(topic, 0, true, string(payload))
}
