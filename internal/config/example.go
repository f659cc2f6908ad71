package config

// ExampleINI is printed by -example-config.
const ExampleINI = `; autodiscover-check configuration
; Environment variables override every value in this file.

[target]
; AUTODISCOVER_EMAIL
email       = user@example.com
; AUTODISCOVER_MAIL_SERVER, defaults to mail.<domain>
mail_server = mail.example.com

[auth]
; Enables the authenticated ActiveSync, CardDAV and CalDAV checks.
; AUTODISCOVER_USERNAME / AUTODISCOVER_PASSWORD
username =
password =

[probe]
dns_timeout  = 10s
http_timeout = 30s
retries      = 3
retry_delay  = 1s
; comma separated, defaults to /etc/resolv.conf
nameservers  =
; 1 runs the checks one after another
concurrency  = 1

[cache]
; file or redis
backend        = file
; defaults to the user cache directory
dir            =
ttl            = 1h
redis_addr     = localhost:6379
redis_password =
redis_db       = 0

[log]
; trace, debug, info, warn, error, off
level  = info
; console or json
format = console

[provider.cloudflare]
; CLOUDFLARE_API_TOKEN
api_token =
zone_id   =

[provider.rfc2136]
server         =
zone           =
tsig_name      =
tsig_secret    =
tsig_algorithm = hmac-sha256

[provider.gcloud]
managed_zone =
project      =
`
