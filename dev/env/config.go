package devenv

// KilometrikisaTestConfig is read from dev/.state/kilometrikisa_config.json5,
// tests that talk to the real site are skipped when it is absent.
type KilometrikisaTestConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// a contest id and year in which the test account logged nothing
	EmptyContestId string `json:"empty_contest_id"`
	EmptyYear      int    `json:"empty_year"`
}
