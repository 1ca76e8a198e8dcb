package sqlinline

const QSelectIntegrationToken = `--sql 1c85f3b9-d027-4ae6-b941-78e4a60d25cf
select token
from integration_tokens
where provider = $1;
`

const QUpsertIntegrationToken = `--sql 95d2c604-3fb8-47e1-a58c-b017d6e39f42
insert into integration_tokens (provider, token, properties)
values ($1, $2, $3)
on conflict (provider) do update
set token = excluded.token, properties = excluded.properties, updated_at = now();
`
