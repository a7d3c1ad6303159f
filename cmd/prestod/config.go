package main

import (
	configsqlite "prestoassist-backend/lib/configutil/sqlite"
)

type UserConfig struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// cards to sync, fetched from the dashboard when empty
	Cards []string `json:"cards"`
}

type Config struct {
	Database configsqlite.Struct `json:"database"`
	Users    []UserConfig        `json:"users"`
	// minutes between sync passes, defaults to 60
	IntervalMinutes int `json:"interval_minutes"`
	// overridable for staging portals, defaults to the live one
	BaseUrl string `json:"base_url"`
	Verbose bool   `json:"verbose"`
}
