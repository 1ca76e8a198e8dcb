package sqlinline

const QInsertSession = `--sql b37c90f4-16ad-4528-83e9-f02d5c67a198
insert into watch_sessions (id, job_id, observer_id, active, expires_at)
values ($1, $2, $3, true, $4);
`

const QDeactivateSession = `--sql 29e51a86-fd03-4b72-a6c5-840b97d3e160
update watch_sessions
set active = false
where id = $1;
`

const QActiveSessionsForJob = `--sql 73a08d25-4eb1-49c6-b0d7-52f6c18a9e04
select id, job_id, observer_id, active, expires_at, created_at
from watch_sessions
where job_id = $1 and active and expires_at > now();
`

const QExpireSessions = `--sql e10d472f-85c6-4390-9a2b-6d38f51c07be
update watch_sessions
set active = false
where active and expires_at <= $1;
`
