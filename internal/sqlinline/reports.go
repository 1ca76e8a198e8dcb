package sqlinline

const QUpsertReport = `--sql 4a9e62d1-b803-4f57-a1c4-e6d09f28b735
insert into brand_reports (id, job_id, palette, mood, style, subjects, pieces)
values (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
on conflict (job_id) do nothing;
`

const QGetReportByJobID = `--sql de5170cb-92a4-4683-bd3f-08c7a15e94f2
select id, job_id, palette, mood, style, subjects, pieces, rating, feedback, created_at
from brand_reports
where job_id = $1;
`

const QSaveReportFeedback = `--sql 6f24b8e0-73d5-4a1c-9b68-1e05c94df327
update brand_reports
set rating = $2, feedback = $3
where job_id = $1;
`
