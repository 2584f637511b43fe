// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sheets-publish extracts Google Sheets worksheets to JSON files and publishes them to a GitHub repository.

sheets-publish can be used from the command line but is really intended to be run from a cron job (or a scheduled
CI workflow) to keep the data files of a static site in sync with the spreadsheets maintained by the site editors.

The list of worksheets to extract and the site layout are maintained in a master configuration spreadsheet. Each
run refreshes the local copies of both, extracts every listed worksheet to JSON and creates or updates the JSON
files in the site repository.

sheets-publish supports the following commands:

  - run, to refresh the configuration and extract and publish every listed worksheet (the default)
  - get, to extract a single worksheet to a local JSON or TSV file
  - authorise, to authorise application access to Google Sheets with OAuth client credentials
  - version, to display the current version
*/
package sheets
