package sqlinline

// jobColumns keeps scan order identical across every query returning full
// job rows.
const jobColumns = `id, user_id, source_url, context, purpose, output_format, creativity_level,
       additional_instructions, locale, status, progress, analysis_output, content_output,
       error_message, error_stage, retry_count, max_retries,
       created_at, analysis_completed_at, content_completed_at, completed_at, updated_at, deleted_at`

const QInsertJob = `--sql 7d1f4c2a-9b3e-4f10-8a6d-2c5e90b71a44
insert into vision_jobs (
    id, user_id, source_url, context, purpose, output_format, creativity_level,
    additional_instructions, locale, status, progress, error_message, error_stage,
    retry_count, max_retries
)
values (
    gen_random_uuid(), $1, $2, $3, $4, $5, $6,
    $7, $8, 'pending', 0, '', '',
    0, $9
)
returning id, created_at, updated_at;
`

const QClaimNextPendingJob = `--sql 3e8a17f5-6c2d-44b9-9f01-bd74a6c3e912
with next_job as (
    select id
    from vision_jobs
    where status = 'pending' and deleted_at is null
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update vision_jobs
    set status = 'analyzing', updated_at = now()
    where id in (select id from next_job)
    returning ` + jobColumns + `
)
select * from claimed;
`

const QClaimRetryEligibleJobs = `--sql 5b0c92de-1fa4-4e87-b3c6-087d41f5aa28
with eligible as (
    select id
    from vision_jobs
    where status = 'error' and retry_count < max_retries and deleted_at is null
    order by updated_at asc
    for update skip locked
    limit $1
),
claimed as (
    update vision_jobs
    set status = 'analyzing', updated_at = now()
    where id in (select id from eligible)
    returning ` + jobColumns + `
)
select * from claimed;
`

const QUpdateJobStatus = `--sql 914db6a0-27c8-49e3-a5f2-6e1b30c98d57
update vision_jobs
set status = $2,
    progress = $3,
    analysis_output = coalesce($4, analysis_output),
    analysis_completed_at = case when $4 is not null and analysis_completed_at is null
                                 then now() else analysis_completed_at end,
    content_output = coalesce($5, content_output),
    content_completed_at = case when $5 is not null and content_completed_at is null
                                then now() else content_completed_at end,
    error_message = case when $2 = 'complete' then '' else coalesce($6, error_message) end,
    error_stage = case when $2 = 'complete' then '' else coalesce($7, error_stage) end,
    retry_count = least(coalesce($8, retry_count), max_retries),
    completed_at = case when $2 = 'complete' and completed_at is null
                        then now() else completed_at end,
    updated_at = now()
where id = $1 and deleted_at is null;
`

const QGetJobByID = `--sql c2f7e841-50d9-4ab3-8c16-f49a2d07b3e6
select ` + jobColumns + `
from vision_jobs
where id = $1 and deleted_at is null;
`

const QListJobsByUser = `--sql a68d30c5-e412-47fb-92a8-7153cb9f04d1
select ` + jobColumns + `
from vision_jobs
where user_id = $1 and deleted_at is null
order by created_at desc
limit $2 offset $3;
`

const QMarkStaleRunningJobs = `--sql f05a7b93-3d68-4c21-bf40-19e8d62c57aa
update vision_jobs
set status = 'error',
    error_stage = 'timeout',
    error_message = 'processing exceeded the job timeout',
    retry_count = least(retry_count + 1, max_retries),
    updated_at = now()
where status in ('analyzing', 'generating')
  and deleted_at is null
  and updated_at < now() - make_interval(secs => $1);
`

const QCancelJob = `--sql 68b14ef2-c790-4d5a-a3e8-05f6271b9c83
update vision_jobs
set status = 'cancelled', updated_at = now()
where id = $1 and status = 'pending' and deleted_at is null;
`

const QRetryJob = `--sql 0d93c5a7-84e1-4b6f-95d2-c31f08a76e49
update vision_jobs
set status = 'pending', progress = 0, error_message = '', error_stage = '', updated_at = now()
where id = $1 and status = 'error' and retry_count < max_retries and deleted_at is null;
`

const QSoftDeleteJob = `--sql 821f6d0b-5a37-4c94-8e05-d7b2941cf3a6
update vision_jobs
set deleted_at = now(), updated_at = now()
where id = $1 and deleted_at is null;
`
