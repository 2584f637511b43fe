package commands

const (
	_etc = "/usr/local/etc/sheets-publish"
	_var = "/usr/local/var/sheets-publish"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
