package app_setting

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

// This is the pusher config for digest execution.
type DigestAppSetting struct {
	// Number of delivery attempts against the Teams webhook before a team is
	// given up for this window.
	DELIVERY_MAX_ATTEMPTS int `yaml:"DELIVERY_MAX_ATTEMPTS"`
	// Base delay of the delivery retry backoff in milliseconds.
	DELIVERY_BASE_DELAY_MS int64 `yaml:"DELIVERY_BASE_DELAY_MS"`
	// Hard cap on a single backoff sleep in milliseconds.
	DELIVERY_MAX_DELAY_MS int64 `yaml:"DELIVERY_MAX_DELAY_MS"`
	// Search index purge and rebuild interval in seconds.
	INDEX_SYNC_INTERVAL_SECOND int64 `yaml:"INDEX_SYNC_INTERVAL_SECOND"`
}

func ParseDigestAppSetting(path string) DigestAppSetting {
	c := DigestAppSetting{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}
