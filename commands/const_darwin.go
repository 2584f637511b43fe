package commands

const (
	_etc = "/usr/local/etc/com.github.sitesync"
	_var = "/usr/local/var/com.github.sitesync"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/sheets-publish/.google/credentials.json"
)
