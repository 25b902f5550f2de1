// File path: internal/postgres/queries.go
package postgres

const companyDocumentsQuery = `
SELECT d.id,
       cdj.company_id,
       COALESCE(d.metadata->>'filename', '') AS filename,
       COALESCE(d.metadata->>'content_type', '') AS content_type,
       COALESCE(d.metadata->>'file_size', '') AS file_size,
       d.parsed_content,
       d.document_summary,
       d.bucket_name,
       d.object_name,
       d.created_at
FROM public.documents_01_14 d
JOIN public.companies_documents_join cdj ON d.id = cdj.attachment_id
WHERE cdj.company_id = $1
ORDER BY d.created_at DESC`

const indexableDocumentsQuery = `
SELECT DISTINCT ON (d.id)
       d.id,
       COALESCE(cdj.company_id, 0) AS company_id,
       COALESCE(d.metadata->>'filename', '') AS filename,
       COALESCE(d.metadata->>'content_type', '') AS content_type,
       COALESCE(d.metadata->>'file_size', '') AS file_size,
       d.parsed_content,
       d.document_summary,
       d.bucket_name,
       d.object_name,
       d.created_at
FROM public.documents_01_14 d
LEFT JOIN public.companies_documents_join cdj ON d.id = cdj.attachment_id
WHERE d.document_summary IS NOT NULL OR d.parsed_content IS NOT NULL
ORDER BY d.id`
