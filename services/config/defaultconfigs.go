package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (as passed to NewConfigService or --board)
// Val: raw JSON of a types.BoardConfig
// An empty backend means the build's default backend.
// -----------------------------------------------------------------------------

const cfgSim = `{
  "board": "sim",
  "backend": "sim",
  "blink_period_ms": 100,
  "leds": [
    {"id": "status", "port": "A", "pin": 5},
    {"id": "user", "port": "C", "pin": 13}
  ]
}`

const cfgNucleoF401RE = `{
  "board": "nucleo-f401re",
  "backend": "",
  "blink_period_ms": 100,
  "leds": [
    {"id": "ld2", "port": "A", "pin": 5}
  ]
}`

const cfgBlackpillF411 = `{
  "board": "blackpill-f411",
  "backend": "",
  "blink_period_ms": 250,
  "leds": [
    {"id": "user", "port": "C", "pin": 13}
  ]
}`

var embeddedConfigs = map[string][]byte{
	"sim":            []byte(cfgSim),
	"nucleo-f401re":  []byte(cfgNucleoF401RE),
	"blackpill-f411": []byte(cfgBlackpillF411),
}
