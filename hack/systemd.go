package hack

// SystemdUnitTemplate is installed to /etc/systemd/system/inaups.service.
// /path/to/inaups is replaced with the absolute path of the executable.
const SystemdUnitTemplate = `[Unit]
Description=inaups UPS HAT battery monitor
After=multi-user.target

[Service]
Type=simple
ExecStart=/path/to/inaups daemon --config /etc/inaups.toml
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`
