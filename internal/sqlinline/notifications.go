package sqlinline

const QNotifyJobEvent = `--sql 4c6e2f91-b85a-47d3-9e10-62a7d5c40b8f
select pg_notify($1, $2);
`
