/*
Package gtm-admin-audit audits the administrators of the Google Tag Manager accounts accessible to an
authorised user.

gtm-admin-audit can be used from the command line but is really intended to be run from a cron job. Each
run counts the users with account level 'admin' access for every visible GTM account, flags the accounts
that have exactly 'min-admins' administrators (a single point of failure with the default of 1) or more
than 'max-admins' administrators (excess privilege), writes the flagged accounts to a new timestamped
worksheet in a Google Sheets spreadsheet and emails a summary to a list of recipients.

gtm-admin-audit supports the following commands:

  - authorise, to authorise access to Tag Manager, Google Sheets and Gmail
  - audit, to run the audit
  - version, to display the current version
*/
package gtmaudit
